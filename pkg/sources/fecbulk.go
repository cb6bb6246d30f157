package sources

import "fmt"

// Column layouts of the bulk files. The archives carry no header row, so
// columns are positional.
var (
	candidateHeaders = []string{"fec_id", "name", "party", "election_year", "state", "office", "district"}
	committeeHeaders = []string{"fec_id", "committee_name", "committee_type", "party", "state", "cand_id"}
	receiptHeaders   = []string{"cmte_id", "transaction_id", "contributor_name", "employer", "occupation", "transaction_date", "amount", "cand_id"}
)

// BulkCatalog enumerates the bulk download files for an election cycle.
type BulkCatalog struct {
	baseURL string
}

// NewBulkCatalog creates a catalog rooted at the bulk download base URL.
func NewBulkCatalog(baseURL string) *BulkCatalog {
	return &BulkCatalog{baseURL: baseURL}
}

// Files returns the candidate, committee and individual-receipt archives for
// a cycle, in the order normalization expects them.
func (c *BulkCatalog) Files(cycle int) []RemoteFile {
	yy := cycle % 100
	return []RemoteFile{
		{
			URL:        fmt.Sprintf("%s/%d/cn%02d.zip", c.baseURL, cycle, yy),
			Filename:   fmt.Sprintf("cn%02d.zip", yy),
			RecordType: "candidate",
			Delimiter:  '|',
			Headers:    candidateHeaders,
		},
		{
			URL:        fmt.Sprintf("%s/%d/cm%02d.zip", c.baseURL, cycle, yy),
			Filename:   fmt.Sprintf("cm%02d.zip", yy),
			RecordType: "committee",
			Delimiter:  '|',
			Headers:    committeeHeaders,
		},
		{
			URL:        fmt.Sprintf("%s/%d/indiv%02d.zip", c.baseURL, cycle, yy),
			Filename:   fmt.Sprintf("indiv%02d.zip", yy),
			RecordType: "receipt",
			Delimiter:  '|',
			Headers:    receiptHeaders,
		},
	}
}

package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/cooljasonmelton/follow-the-money/internal/tracing"
	"github.com/cooljasonmelton/follow-the-money/pkg/models"
)

// FlowService projects normalized entities and money flow into the graph.
// Nodes are keyed by their stable identifiers, so projection is idempotent.
type FlowService struct {
	client *Client
	logger ectologger.Logger
}

// NewFlowService creates a new flow projection service
func NewFlowService(client *Client, logger ectologger.Logger) *FlowService {
	return &FlowService{
		client: client,
		logger: logger,
	}
}

// ProjectCandidate merges a candidate node.
func (s *FlowService) ProjectCandidate(ctx context.Context, candidate *models.Candidate) error {
	ctx, span := tracing.StartSpan(ctx, "graph.FlowService.ProjectCandidate")
	defer span.End()

	props := map[string]any{"fec_id": candidate.FECCandidateID}
	if candidate.Name != nil {
		props["name"] = *candidate.Name
	}
	if candidate.Party != nil {
		props["party"] = *candidate.Party
	}
	if candidate.State != nil {
		props["state"] = *candidate.State
	}

	cypher := `
		MERGE (c:Candidate {fec_id: $fec_id})
		SET c += $props
	`
	return s.write(ctx, cypher, map[string]any{"fec_id": candidate.FECCandidateID, "props": props})
}

// ProjectCommittee merges a committee node and, when the committee is linked
// to a candidate, a LINKED_TO edge.
func (s *FlowService) ProjectCommittee(ctx context.Context, committee *models.Committee, linkedCandidateID *string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.FlowService.ProjectCommittee")
	defer span.End()

	props := map[string]any{"fec_id": committee.FECCommitteeID}
	if committee.Name != nil {
		props["name"] = *committee.Name
	}
	if committee.Party != nil {
		props["party"] = *committee.Party
	}

	cypher := `
		MERGE (m:Committee {fec_id: $fec_id})
		SET m += $props
	`
	if err := s.write(ctx, cypher, map[string]any{"fec_id": committee.FECCommitteeID, "props": props}); err != nil {
		return err
	}

	if linkedCandidateID == nil {
		return nil
	}
	linkCypher := `
		MATCH (m:Committee {fec_id: $committee_id})
		MERGE (c:Candidate {fec_id: $candidate_id})
		MERGE (m)-[:LINKED_TO]->(c)
	`
	return s.write(ctx, linkCypher, map[string]any{
		"committee_id": committee.FECCommitteeID,
		"candidate_id": *linkedCandidateID,
	})
}

// ProjectEmployer merges an employer node and a CLASSIFIED_AS edge for each
// industry it belongs to.
func (s *FlowService) ProjectEmployer(ctx context.Context, employer *models.Employer, industryCodes []string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.FlowService.ProjectEmployer")
	defer span.End()

	cypher := `
		MERGE (e:Employer {hash: $hash})
		SET e.name = $name
	`
	if err := s.write(ctx, cypher, map[string]any{"hash": employer.EmployerHash, "name": employer.NormalizedName}); err != nil {
		return err
	}

	classifyCypher := `
		MATCH (e:Employer {hash: $hash})
		MERGE (i:Industry {code: $code})
		MERGE (e)-[:CLASSIFIED_AS]->(i)
	`
	for _, code := range industryCodes {
		if err := s.write(ctx, classifyCypher, map[string]any{"hash": employer.EmployerHash, "code": code}); err != nil {
			return err
		}
	}
	return nil
}

// ProjectFlow accumulates a FUNDS edge from an employer to a committee.
// Repeated projection of the same contribution set inflates totals, so
// callers clear or rebuild the graph per window.
func (s *FlowService) ProjectFlow(ctx context.Context, rows []models.ContributionWindowRow) error {
	ctx, span := tracing.StartSpan(ctx, "graph.FlowService.ProjectFlow")
	defer span.End()

	cypher := `
		MERGE (e:Employer {hash: $hash})
		MERGE (m:Committee {fec_id: $committee_id})
		MERGE (e)-[r:FUNDS]->(m)
		ON CREATE SET r.total_cents = $cents, r.sample_size = 1
		ON MATCH SET r.total_cents = r.total_cents + $cents, r.sample_size = r.sample_size + 1
	`

	projected := 0
	for _, row := range rows {
		if row.EmployerHash == nil || row.FECCommitteeID == nil {
			continue
		}
		err := s.write(ctx, cypher, map[string]any{
			"hash":         *row.EmployerHash,
			"committee_id": *row.FECCommitteeID,
			"cents":        row.AmountCents,
		})
		if err != nil {
			return err
		}
		projected++
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{"edges": projected}).Info("Projected money flow")
	return nil
}

// Clear drops every node and edge. Used before rebuilding a window.
func (s *FlowService) Clear(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "graph.FlowService.Clear")
	defer span.End()

	return s.write(ctx, `MATCH (n) DETACH DELETE n`, nil)
}

// Neighborhood returns the employers funding a committee, strongest first.
func (s *FlowService) Neighborhood(ctx context.Context, committeeID string, limit int) ([]map[string]any, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.FlowService.Neighborhood")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 25
	}

	cypher := `
		MATCH (e:Employer)-[r:FUNDS]->(m:Committee {fec_id: $committee_id})
		RETURN e.hash AS employer_hash, e.name AS employer_name, r.total_cents AS total_cents, r.sample_size AS sample_size
		ORDER BY r.total_cents DESC
		LIMIT $limit
	`

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"committee_id": committeeID, "limit": limit})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(records))
		for _, record := range records {
			rows = append(rows, record.AsMap())
		}
		return rows, nil
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"committee_id": committeeID}).Error("Failed to read committee neighborhood")
		return nil, fmt.Errorf("failed to read committee neighborhood: %w", err)
	}
	return result.([]map[string]any), nil
}

func (s *FlowService) write(ctx context.Context, cypher string, params map[string]any) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Graph write failed")
		return fmt.Errorf("graph write failed: %w", err)
	}
	return nil
}

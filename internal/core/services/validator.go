package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
	"github.com/docfold/docfold/internal/logger"
)

// Validator cross-checks a proposed organisation plan against the
// known records and the live filesystem, producing an executable move
// set. Schema violations and root escapes abort validation; missing
// coverage and destination collisions are repaired best-effort and
// surfaced in the report for user review.
type Validator struct {
	destRoot string
	mover    driven.FileMover
	metrics  *domain.MetricsLedger
}

// NewValidator creates a validator rooted at destRoot. destRoot must
// be absolute; every resolved destination stays underneath it.
func NewValidator(destRoot string, mover driven.FileMover, metrics *domain.MetricsLedger) *Validator {
	return &Validator{
		destRoot: filepath.Clean(destRoot),
		mover:    mover,
		metrics:  metrics,
	}
}

// Validate reconciles the plan into a move set.
//
// Repeated validation of the same plan yields the same move set:
// collision suffixes are assigned in mapping order and derived only
// from the colliding destination name.
func (v *Validator) Validate(
	ctx context.Context,
	plan *domain.OrganisationPlan,
	records []domain.DocumentRecord,
) (*domain.ValidationReport, error) {
	if err := v.checkSchema(plan, records); err != nil {
		return nil, err
	}

	report := &domain.ValidationReport{}
	v.checkCoverage(plan, records, report)

	taken := make(map[string]bool, len(plan.Mappings))
	for _, m := range plan.Mappings {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		dest, err := v.normalise(m.Destination)
		if err != nil {
			return nil, err
		}

		// A mapping that would leave the file where it is carries no
		// work. The occupied path still counts as taken so a sibling
		// mapping cannot claim it.
		if dest == filepath.Clean(m.Source) {
			taken[dest] = true
			report.Elided++
			continue
		}

		resolved, err := v.resolveCollision(dest, taken)
		if err != nil {
			return nil, err
		}
		taken[resolved] = true

		op := domain.MoveOp{
			Source:              m.Source,
			Destination:         dest,
			ResolvedDestination: resolved,
		}
		if op.Renamed() {
			report.Renamed = append(report.Renamed, op)
			logger.Info("Collision on %s, resolved to %s", dest, resolved)
		}
		report.MoveSet.Ops = append(report.MoveSet.Ops, op)
	}

	// Parents before children: order by destination depth ascending.
	// Stable, so equal depths keep plan order.
	sort.SliceStable(report.MoveSet.Ops, func(i, j int) bool {
		return v.depth(report.MoveSet.Ops[i].ResolvedDestination) <
			v.depth(report.MoveSet.Ops[j].ResolvedDestination)
	})

	if v.metrics != nil {
		v.metrics.Add(domain.CounterMovesPlanned, int64(len(report.MoveSet.Ops)))
		v.metrics.Add(domain.CounterUnmappedRecords, int64(len(report.Unmapped)))
		v.metrics.Add(domain.CounterCollisionsRenamed, int64(len(report.Renamed)))
	}
	return report, nil
}

// checkSchema enforces the plan shape and its invariants: mappings
// present, sources and destinations non-empty, each source known,
// extracted, and mapped at most once.
func (v *Validator) checkSchema(plan *domain.OrganisationPlan, records []domain.DocumentRecord) error {
	if plan == nil || len(plan.Mappings) == 0 {
		return fmt.Errorf("%w: no mappings", domain.ErrPlanMalformed)
	}

	known := make(map[string]domain.RecordStatus, len(records))
	for _, r := range records {
		known[r.Path] = r.Status
	}

	seen := make(map[string]bool, len(plan.Mappings))
	for _, m := range plan.Mappings {
		if m.Source == "" || m.Destination == "" {
			return fmt.Errorf("%w: empty source or destination", domain.ErrPlanMalformed)
		}
		if seen[m.Source] {
			return fmt.Errorf("%w: %s mapped twice", domain.ErrPlanMalformed, m.Source)
		}
		seen[m.Source] = true

		status, ok := known[m.Source]
		if !ok {
			return fmt.Errorf("%w: unknown source %s", domain.ErrPlanMalformed, m.Source)
		}
		if !status.AtLeast(domain.StatusExtracted) {
			return fmt.Errorf("%w: source %s was never extracted", domain.ErrPlanMalformed, m.Source)
		}
	}
	return nil
}

// checkCoverage reports records the plan failed to cover. They stay
// in place; this never fails validation.
func (v *Validator) checkCoverage(
	plan *domain.OrganisationPlan,
	records []domain.DocumentRecord,
	report *domain.ValidationReport,
) {
	mapped := make(map[string]bool, len(plan.Mappings))
	for _, m := range plan.Mappings {
		mapped[m.Source] = true
	}
	for _, r := range records {
		if r.Status.AtLeast(domain.StatusExtracted) && !mapped[r.Path] {
			report.Unmapped = append(report.Unmapped, r.Path)
			logger.Warn("Plan does not cover %s, leaving in place", r.Path)
		}
	}
}

// normalise rewrites a proposed destination to an absolute path under
// the destination root, rejecting anything that escapes it.
func (v *Validator) normalise(dest string) (string, error) {
	dest = strings.TrimSpace(dest)
	if filepath.IsAbs(dest) {
		return "", fmt.Errorf("%w: %s is absolute", domain.ErrPathEscape, dest)
	}
	rel := filepath.Clean(filepath.FromSlash(dest))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", domain.ErrPathEscape, dest)
	}
	abs := filepath.Join(v.destRoot, rel)
	if abs != v.destRoot && !strings.HasPrefix(abs, v.destRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", domain.ErrPathEscape, dest)
	}
	return abs, nil
}

// resolveCollision finds the first free variant of dest, against both
// sibling mappings and pre-existing files. Suffixes count up from 1
// on the destination stem: out.pdf, out_1.pdf, out_2.pdf.
func (v *Validator) resolveCollision(dest string, taken map[string]bool) (string, error) {
	candidate := dest
	for n := 1; ; n++ {
		clash := taken[candidate]
		if !clash {
			onDisk, err := v.mover.IsRegular(candidate)
			if err != nil {
				return "", fmt.Errorf("check destination %s: %w", candidate, err)
			}
			clash = onDisk
		}
		if !clash {
			return candidate, nil
		}

		ext := filepath.Ext(dest)
		stem := strings.TrimSuffix(dest, ext)
		candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
}

// depth counts path segments below the destination root.
func (v *Validator) depth(abs string) int {
	rel, err := filepath.Rel(v.destRoot, abs)
	if err != nil {
		return strings.Count(abs, string(filepath.Separator))
	}
	return strings.Count(rel, string(filepath.Separator))
}

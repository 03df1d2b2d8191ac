package app

import (
	"context"
	"strings"
)

type reorderRequest struct {
	SectionID     string     `json:"sectionId"`
	OrderedIDs    []string   `json:"orderedIds"`
	Groups        [][]string `json:"groups"`
	ItemsPerGroup int        `json:"itemsPerGroup"`
}

type ReorderResult struct {
	Message string `json:"message"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

type position struct {
	id    string
	order int
}

// positions flattens a request into row orders. Grouped layouts place item i
// of group g at g*itemsPerGroup+i so every group starts on its own row.
func (req reorderRequest) positions() ([]position, error) {
	var out []position
	switch {
	case req.Groups != nil:
		if req.ItemsPerGroup <= 0 {
			return nil, validationError("itemsPerGroup must be positive")
		}
		for g, group := range req.Groups {
			if len(group) > req.ItemsPerGroup {
				return nil, validationError("group exceeds itemsPerGroup")
			}
			for i, id := range group {
				out = append(out, position{id: strings.TrimSpace(id), order: g*req.ItemsPerGroup + i})
			}
		}
	case req.OrderedIDs != nil:
		for i, id := range req.OrderedIDs {
			out = append(out, position{id: strings.TrimSpace(id), order: i})
		}
	default:
		return nil, validationError("orderedIds is required")
	}
	for _, p := range out {
		if p.id == "" {
			return nil, validationError("orderedIds must not contain blank ids")
		}
	}
	return out, nil
}

// Reorder writes each row's order independently. Unknown ids are skipped and
// a failed write does not stop the rest.
func (r *resource[T, P]) Reorder(ctx context.Context, scopeID string, req reorderRequest) (ReorderResult, error) {
	scopeID = strings.TrimSpace(scopeID)
	if r.scopeKey != "" && scopeID == "" {
		return ReorderResult{}, validationError(r.scopeKey + " is required")
	}
	positions, err := req.positions()
	if err != nil {
		return ReorderResult{}, err
	}

	result := ReorderResult{Message: r.coll.Label() + " order updated"}
	for _, p := range positions {
		ok, err := r.coll.SetOrder(ctx, scopeID, p.id, p.order)
		switch {
		case err != nil:
			r.svc.logger.Warn().Err(err).Str("collection", r.path).Str("id", p.id).Msg("reorder row failed")
			result.Failed++
		case !ok:
			result.Skipped++
		default:
			result.Updated++
		}
	}
	if result.Updated > 0 {
		r.svc.invalidate(ctx)
	}
	return result, nil
}

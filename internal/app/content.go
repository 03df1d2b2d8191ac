package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"portfolio/api/internal/patch"
	"portfolio/api/internal/search"
	"portfolio/api/internal/store"
	"portfolio/api/internal/util"
)

const publicIDKey = "imagePublicId"

// imageRule names the body key holding an entity's image source. A required
// source can be replaced but never cleared.
type imageRule struct {
	srcKey   string
	required bool
}

// contentResource is the type-erased view of a resource used for routing.
type contentResource interface {
	Path() string
	get(ctx context.Context, id string) (any, error)
	create(ctx context.Context, body []byte) (any, error)
	update(ctx context.Context, id string, body []byte) (any, error)
	remove(ctx context.Context, id string) (string, error)
	reorder(ctx context.Context, scopeID string, req reorderRequest) (ReorderResult, error)
	// scopeKey is the create body key naming the parent row; empty for
	// top-level collections.
	scopeKeyName() string
}

// resource wires one collection to the create, update, delete and reorder
// protocols.
type resource[T store.Record, P store.Patch[T]] struct {
	svc      *Service
	path     string
	prefix   string
	coll     Collection[T, P]
	scopeKey string
	// parent reports a missing scope row as a 404.
	parent   func(ctx context.Context, id string) error
	required []string
	image    *imageRule
	init     func(item *T, id, scopeID string)
	validate func(p P) error
	// children collects what the store deletes with item by cascade.
	children func(ctx context.Context, item T) (cascade, error)
	indexed  func(item T)
	removed  func(item T)
}

// cascade is the remote state owned by rows that go away with their parent.
type cascade struct {
	assets    []string
	unindexed []indexKey
}

type indexKey struct {
	kind search.ResultType
	id   string
}

func (r *resource[T, P]) Path() string         { return r.path }
func (r *resource[T, P]) scopeKeyName() string { return r.scopeKey }

func (r *resource[T, P]) get(ctx context.Context, id string) (any, error) {
	return r.Get(ctx, id)
}

func (r *resource[T, P]) create(ctx context.Context, body []byte) (any, error) {
	return r.Create(ctx, body)
}

func (r *resource[T, P]) update(ctx context.Context, id string, body []byte) (any, error) {
	_, after, err := r.Update(ctx, id, body)
	return after, err
}

func (r *resource[T, P]) remove(ctx context.Context, id string) (string, error) {
	if err := r.Delete(ctx, id); err != nil {
		return "", err
	}
	return r.coll.Label() + " deleted", nil
}

func (r *resource[T, P]) reorder(ctx context.Context, scopeID string, req reorderRequest) (ReorderResult, error) {
	return r.Reorder(ctx, scopeID, req)
}

func (r *resource[T, P]) Get(ctx context.Context, id string) (T, error) {
	item, err := r.coll.Get(ctx, id)
	if err != nil {
		var zero T
		return zero, r.translate(err)
	}
	return item, nil
}

// Create inserts a row from a full-or-defaulted body. A missing order
// appends the row to the end of its scope.
func (r *resource[T, P]) Create(ctx context.Context, body []byte) (T, error) {
	var zero T
	raw, err := decodeObject(body)
	if err != nil {
		return zero, err
	}

	scopeID := ""
	if r.scopeKey != "" {
		scopeID = rawString(raw, r.scopeKey)
		if scopeID == "" {
			return zero, validationError(r.scopeKey + " is required")
		}
	}
	for _, key := range r.required {
		if _, ok := raw[key]; !ok {
			return zero, validationError(key + " is required")
		}
	}
	if err := r.normalize(raw); err != nil {
		return zero, err
	}
	if r.parent != nil {
		if err := r.parent(ctx, scopeID); err != nil {
			return zero, err
		}
	}
	if _, ok := raw["order"]; !ok {
		next, err := r.coll.NextOrder(ctx, scopeID)
		if err != nil {
			return zero, err
		}
		raw["order"] = json.RawMessage(strconv.Itoa(next))
	}

	p, err := r.decode(raw)
	if err != nil {
		return zero, err
	}

	var item T
	r.init(&item, util.NewID(r.prefix), scopeID)
	p.Apply(&item)

	created, err := r.coll.Insert(ctx, item)
	if err != nil {
		return zero, r.translate(err)
	}
	r.svc.invalidate(ctx)
	if r.indexed != nil {
		r.indexed(created)
	}
	return created, nil
}

// Update applies a sparse patch. When the committed row no longer points at
// its previous image, the old asset is released.
func (r *resource[T, P]) Update(ctx context.Context, id string, body []byte) (T, T, error) {
	var zero T
	raw, err := decodeObject(body)
	if err != nil {
		return zero, zero, err
	}
	if err := r.normalize(raw); err != nil {
		return zero, zero, err
	}
	p, err := r.decode(raw)
	if err != nil {
		return zero, zero, err
	}
	if patch.Empty(&p) {
		return zero, zero, errNoValidFields
	}

	before, after, err := r.coll.Update(ctx, id, p)
	if err != nil {
		return zero, zero, r.translate(err)
	}

	if old := before.ImageID(); old != "" && old != after.ImageID() {
		r.svc.release(ctx, r.path+" image replaced", old)
	}
	r.svc.invalidate(ctx)
	if r.indexed != nil {
		r.indexed(after)
	}
	return before, after, nil
}

// Delete removes the row with its cascading children, then releases the
// children's assets followed by the row's own.
func (r *resource[T, P]) Delete(ctx context.Context, id string) error {
	current, err := r.coll.Get(ctx, id)
	if err != nil {
		return r.translate(err)
	}

	var owned cascade
	if r.children != nil {
		owned, err = r.children(ctx, current)
		if err != nil {
			return err
		}
	}

	deleted, err := r.coll.Delete(ctx, id)
	if err != nil {
		return r.translate(err)
	}

	reason := r.path + " deleted"
	r.svc.release(ctx, reason, owned.assets...)
	r.svc.release(ctx, reason, deleted.ImageID())
	r.svc.invalidate(ctx)
	for _, key := range owned.unindexed {
		r.svc.unindex(key.kind, key.id)
	}
	if r.removed != nil {
		r.removed(deleted)
	}
	return nil
}

// normalize enforces the image pairing on the raw body and rejects blank
// required strings. Clearing an optional image source clears its id too.
func (r *resource[T, P]) normalize(raw map[string]json.RawMessage) error {
	for _, key := range r.required {
		if value, ok := raw[key]; ok && blankJSON(value) {
			return validationError(key + " must not be blank")
		}
	}

	if r.image == nil {
		return nil
	}
	srcKey := r.image.srcKey
	src, hasSrc := raw[srcKey]
	publicID, hasID := raw[publicIDKey]

	if hasSrc && blankJSON(src) {
		if r.image.required {
			return validationError(srcKey + " is required")
		}
		raw[srcKey] = json.RawMessage("null")
		raw[publicIDKey] = json.RawMessage("null")
		return nil
	}
	if hasSrc && !hasID {
		return validationError(srcKey + " must be sent together with " + publicIDKey)
	}
	if hasID && !hasSrc {
		return validationError(publicIDKey + " must be sent together with " + srcKey)
	}
	if hasID && blankJSON(publicID) {
		raw[publicIDKey] = json.RawMessage("null")
	}
	return nil
}

func (r *resource[T, P]) decode(raw map[string]json.RawMessage) (P, error) {
	var p P
	payload, err := json.Marshal(raw)
	if err != nil {
		return p, err
	}
	if err := patch.Decode(payload, &p); err != nil {
		var fieldErr *patch.FieldError
		if errors.As(err, &fieldErr) {
			return p, validationError(fieldErr.Error())
		}
		return p, err
	}
	if r.validate != nil {
		if err := r.validate(p); err != nil {
			return p, err
		}
	}
	return p, nil
}

func (r *resource[T, P]) translate(err error) error {
	switch {
	case store.IsNotFound(err):
		return notFound(r.coll.Label())
	case store.IsConflict(err):
		return domainError(http.StatusConflict, "CONFLICT", r.coll.Label()+" already exists", nil)
	case store.IsMissingReference(err):
		return domainError(http.StatusNotFound, "NOT_FOUND", "Parent not found", nil)
	default:
		return err
	}
}

// existsIn turns a collection lookup into a parent check.
func existsIn[T store.Record, P store.Patch[T]](coll Collection[T, P]) func(ctx context.Context, id string) error {
	return func(ctx context.Context, id string) error {
		if _, err := coll.Get(ctx, id); err != nil {
			if store.IsNotFound(err) {
				return notFound(coll.Label())
			}
			return err
		}
		return nil
	}
}

func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, domainError(http.StatusBadRequest, "INVALID_BODY", "invalid JSON body", nil)
	}
	return raw, nil
}

func rawString(raw map[string]json.RawMessage, key string) string {
	var value string
	if err := json.Unmarshal(raw[key], &value); err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

// blankJSON is true for null and for strings that are empty after trimming.
func blankJSON(value json.RawMessage) bool {
	trimmed := bytes.TrimSpace(value)
	if bytes.Equal(trimmed, []byte("null")) {
		return true
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return false
	}
	return strings.TrimSpace(s) == ""
}

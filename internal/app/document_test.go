package app

import (
	"context"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"portfolio/api/internal/cache"
	"portfolio/api/internal/store"
)

func TestDocumentNestsCollectionsInOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	seedSection(env, "sec_b", "experience", 1)
	seedSection(env, "sec_a", "custom", 0)
	env.content.textBlocks.items = []store.TextBlock{
		{ID: "txt_2", SectionID: "sec_a", Content: "second", Order: 2},
		{ID: "txt_1", SectionID: "sec_a", Content: "first", Order: 1},
		{ID: "txt_orphan", SectionID: "sec_gone", Content: "lost"},
	}
	env.content.experiences.items = []store.ExperienceItem{
		{ID: "exp_1", SectionID: "sec_b", Title: "Dev", Company: "Acme", StartDate: "2020"},
		{ID: "exp_2", SectionID: "sec_b", Title: "Lead", Company: "Acme", StartDate: "2022", Order: 1},
	}
	env.content.experienceImages.items = []store.ExperienceDetailImage{
		{ID: "exi_b", ExperienceItemID: "exp_1", Src: "b.png", Order: 1},
		{ID: "exi_a", ExperienceItemID: "exp_1", Src: "a.png"},
	}

	docs, err := env.svc.Document(context.Background())
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "sec_a" || docs[1].ID != "sec_b" {
		t.Fatalf("unexpected section order %+v", docs)
	}

	var texts []string
	for _, block := range docs[0].TextBlocks {
		texts = append(texts, block.ID)
	}
	if !slices.Equal(texts, []string{"txt_1", "txt_2"}) {
		t.Fatalf("unexpected text blocks %v", texts)
	}
	if docs[0].ProjectItems == nil || docs[0].CustomBlocks == nil {
		t.Fatalf("expected empty collections to be non-nil")
	}

	experiences := docs[1].ExperienceItems
	if len(experiences) != 2 || experiences[0].ID != "exp_1" {
		t.Fatalf("unexpected experiences %+v", experiences)
	}
	if got := experiences[0].DetailImages; len(got) != 2 || got[0].ID != "exi_a" {
		t.Fatalf("unexpected detail images %+v", got)
	}
	if experiences[1].DetailImages == nil {
		t.Fatalf("expected empty detail images to be non-nil")
	}
}

func TestSectionsServedFromCache(t *testing.T) {
	env := newTestEnv(t, nil)
	env.cache.payload = []byte(`[{"id":"cached"}]`)

	rr := env.do(t, http.MethodGet, "/api/sections", "", "")
	expectStatus(t, rr, http.StatusOK)
	if rr.Body.String() != `[{"id":"cached"}]` {
		t.Fatalf("expected cached payload, got %s", rr.Body.String())
	}
}

func TestSectionsFillCacheOnMiss(t *testing.T) {
	env := newTestEnv(t, nil)
	seedSection(env, "sec_1", "hero", 0)

	rr := env.do(t, http.MethodGet, "/api/sections", "", "")
	expectStatus(t, rr, http.StatusOK)
	if env.cache.payload == nil {
		t.Fatalf("expected cache to be filled")
	}
	docs := decodeJSON[[]store.SectionDocument](t, rr)
	if len(docs) != 1 || docs[0].TextBlocks == nil {
		t.Fatalf("unexpected document %+v", docs)
	}
}

// setHookCache runs beforeSet once, just before the next cache write.
type setHookCache struct {
	*cache.Sections
	beforeSet func()
}

func (c *setHookCache) Set(ctx context.Context, gen int64, payload []byte) error {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	return c.Sections.Set(ctx, gen, payload)
}

func TestSectionsCacheDropsDocumentBuiltBeforeUpdate(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sections := &setHookCache{Sections: cache.NewSections(client, time.Minute)}

	env := newTestEnv(t, func(deps *Dependencies) { deps.Cache = sections })
	seedSection(env, "sec_1", "hero", 0)

	// The read has built its document from the old rows when the update
	// commits; its cache write happens afterwards.
	sections.beforeSet = func() {
		rr := env.admin(t, http.MethodPut, "/api/sections/sec_1", `{"title":"NEW"}`)
		expectStatus(t, rr, http.StatusOK)
	}
	rr := env.do(t, http.MethodGet, "/api/sections", "", "")
	expectStatus(t, rr, http.StatusOK)
	if docs := decodeJSON[[]store.SectionDocument](t, rr); docs[0].Title != "SEC_1" {
		t.Fatalf("expected the in-flight read to see the old title, got %q", docs[0].Title)
	}

	for i := 0; i < 2; i++ {
		rr = env.do(t, http.MethodGet, "/api/sections", "", "")
		expectStatus(t, rr, http.StatusOK)
		if docs := decodeJSON[[]store.SectionDocument](t, rr); docs[0].Title != "NEW" {
			t.Fatalf("read %d after update served stale title %q", i+1, docs[0].Title)
		}
	}
	if _, _, ok, err := sections.Get(context.Background()); err != nil || !ok {
		t.Fatalf("expected the fresh document to be cached, ok=%v err=%v", ok, err)
	}
}

func TestSectionDocumentByID(t *testing.T) {
	env := newTestEnv(t, nil)
	seedSection(env, "sec_1", "hero", 0)

	rr := env.do(t, http.MethodGet, "/api/sections/sec_1", "", "")
	expectStatus(t, rr, http.StatusOK)
	if doc := decodeJSON[store.SectionDocument](t, rr); doc.ID != "sec_1" {
		t.Fatalf("unexpected section %+v", doc)
	}

	rr = env.do(t, http.MethodGet, "/api/sections/sec_missing", "", "")
	expectErrorCode(t, rr, http.StatusNotFound, "NOT_FOUND")
}

func TestReorderAssignsPositions(t *testing.T) {
	env := newTestEnv(t, nil)
	seedSection(env, "sec_s", "skills", 0)
	seedSection(env, "sec_other", "skills", 1)
	env.content.skills.items = []store.SkillItem{
		{ID: "skl_a", SectionID: "sec_s", Title: "A", Order: 0},
		{ID: "skl_b", SectionID: "sec_s", Title: "B", Order: 1},
		{ID: "skl_c", SectionID: "sec_s", Title: "C", Order: 2},
		{ID: "skl_x", SectionID: "sec_other", Title: "X", Order: 0},
	}

	rr := env.admin(t, http.MethodPut, "/api/skills/reorder", `{"sectionId":"sec_s","orderedIds":["skl_c","skl_a","skl_x","skl_missing","skl_b"]}`)
	expectStatus(t, rr, http.StatusOK)
	result := decodeJSON[ReorderResult](t, rr)
	if result.Updated != 3 || result.Skipped != 2 || result.Failed != 0 {
		t.Fatalf("unexpected result %+v", result)
	}

	listed, _ := env.content.skills.ListByScope(context.Background(), "sec_s")
	var ids []string
	for _, item := range listed {
		ids = append(ids, item.ID)
	}
	if !slices.Equal(ids, []string{"skl_c", "skl_a", "skl_b"}) {
		t.Fatalf("unexpected order %v", ids)
	}
	orders := map[string]int{}
	for _, item := range env.content.skills.items {
		orders[item.ID] = item.Order
	}
	if orders["skl_c"] != 0 || orders["skl_a"] != 1 || orders["skl_b"] != 4 || orders["skl_x"] != 0 {
		t.Fatalf("unexpected orders %v", orders)
	}
	if env.cache.invalidations != 1 {
		t.Fatalf("expected cache invalidated once, got %d", env.cache.invalidations)
	}
}

func TestReorderGroups(t *testing.T) {
	env := newTestEnv(t, nil)
	seedSection(env, "sec_p", "projects", 0)
	env.content.projects.items = []store.ProjectItem{
		{ID: "prj_a", SectionID: "sec_p"},
		{ID: "prj_b", SectionID: "sec_p"},
		{ID: "prj_c", SectionID: "sec_p"},
	}

	rr := env.admin(t, http.MethodPut, "/api/sections/sec_p/projects/reorder", `{"groups":[["prj_b","prj_a"],["prj_c"]],"itemsPerGroup":3}`)
	expectStatus(t, rr, http.StatusOK)

	orders := map[string]int{}
	for _, item := range env.content.projects.items {
		orders[item.ID] = item.Order
	}
	if orders["prj_b"] != 0 || orders["prj_a"] != 1 || orders["prj_c"] != 3 {
		t.Fatalf("unexpected orders %v", orders)
	}

	rr = env.admin(t, http.MethodPut, "/api/sections/sec_p/projects/reorder", `{"groups":[["prj_a","prj_b"]],"itemsPerGroup":1}`)
	expectErrorCode(t, rr, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestReorderRejectsMalformedRequests(t *testing.T) {
	env := newTestEnv(t, nil)

	cases := map[string]string{
		"/api/skills/reorder":       `{"orderedIds":["skl_a"]}`,
		"/api/sections/reorder":     `{}`,
		"/api/testimonials/reorder": `{"sectionId":"sec_t","orderedIds":["tst_1"," "]}`,
	}
	for path, body := range cases {
		rr := env.admin(t, http.MethodPut, path, body)
		expectErrorCode(t, rr, http.StatusBadRequest, "VALIDATION_ERROR")
	}
}

func TestReorderContinuesPastFailures(t *testing.T) {
	env := newTestEnv(t, nil)
	seedSection(env, "sec_1", "hero", 0)
	seedSection(env, "sec_2", "custom", 1)
	env.content.sections.orderErr["sec_1"] = context.DeadlineExceeded

	rr := env.admin(t, http.MethodPut, "/api/sections/reorder", `{"orderedIds":["sec_2","sec_1"]}`)
	expectStatus(t, rr, http.StatusOK)
	result := decodeJSON[ReorderResult](t, rr)
	if result.Updated != 1 || result.Failed != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

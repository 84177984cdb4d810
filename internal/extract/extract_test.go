package extract

import (
	"errors"
	"testing"

	"github.com/kabir/a2a-tck/internal/models"
)

func TestExtract_KeywordLevels(t *testing.T) {
	doc := []byte(`# 1. Levels
Servers MUST respond.

Servers MUST NOT crash.

Support for streaming is REQUIRED.

Clients SHOULD retry.

Clients SHOULD NOT flood.

Compression is RECOMMENDED.

Agents MAY cache.
`)
	v, err := Extract("levels.md", "", doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []models.Level{
		models.LevelMust,
		models.LevelMustNot,
		models.LevelRequired,
		models.LevelShould,
		models.LevelShouldNot,
		models.LevelRecommended,
		models.LevelMay,
	}
	if len(v.Requirements) != len(want) {
		t.Fatalf("len = %d, want %d: %+v", len(v.Requirements), len(want), v.Requirements)
	}
	for i, r := range v.Requirements {
		if r.Level != want[i] {
			t.Errorf("req[%d].Level = %s, want %s", i, r.Level, want[i])
		}
		if r.Section != "1" {
			t.Errorf("req[%d].Section = %q, want %q", i, r.Section, "1")
		}
	}
	if v.Requirements[0].ID != "1-1" || v.Requirements[6].ID != "1-7" {
		t.Errorf("ids = %q .. %q, want 1-1 .. 1-7", v.Requirements[0].ID, v.Requirements[6].ID)
	}
}

func TestExtract_CaseSensitive(t *testing.T) {
	doc := []byte("# 1. Prose\nThe reader must not confuse prose with norms, though one may try.\n")
	v, err := Extract("prose.md", "", doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(v.Requirements) != 0 {
		t.Errorf("expected no requirements from lowercase keywords, got %+v", v.Requirements)
	}
}

func TestExtract_MustNotPrecedence(t *testing.T) {
	doc := []byte("# 1. Order\nServers MUST NOT reuse identifiers.\n")
	v, err := Extract("order.md", "", doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(v.Requirements) != 1 {
		t.Fatalf("len = %d, want 1 (MUST NOT matched as two keywords?)", len(v.Requirements))
	}
	if v.Requirements[0].Level != models.LevelMustNot {
		t.Errorf("level = %s, want %s", v.Requirements[0].Level, models.LevelMustNot)
	}
}

func TestExtract_MultipleKeywordsPerStatement(t *testing.T) {
	doc := []byte("# 2. Combined\nServers MUST validate input and SHOULD log rejections.\n")
	v, err := Extract("combined.md", "", doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(v.Requirements) != 2 {
		t.Fatalf("len = %d, want 2", len(v.Requirements))
	}
	if v.Requirements[0].ID != "2-1" || v.Requirements[1].ID != "2-2" {
		t.Errorf("ids = %q, %q", v.Requirements[0].ID, v.Requirements[1].ID)
	}
	// Both requirements carry the full enclosing statement.
	if v.Requirements[0].Description != v.Requirements[1].Description {
		t.Errorf("descriptions differ: %q vs %q", v.Requirements[0].Description, v.Requirements[1].Description)
	}
}

func TestExtract_ListItemsAreSeparateStatements(t *testing.T) {
	doc := []byte(`# 3. Rules
- Clients MUST retry idempotent calls.
- Servers SHOULD log every rejection.
`)
	v, err := Extract("rules.md", "", doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(v.Requirements) != 2 {
		t.Fatalf("len = %d, want 2", len(v.Requirements))
	}
	if v.Requirements[0].Description != "Clients MUST retry idempotent calls." {
		t.Errorf("first description = %q", v.Requirements[0].Description)
	}
	if v.Requirements[1].Description != "Servers SHOULD log every rejection." {
		t.Errorf("second description = %q", v.Requirements[1].Description)
	}
}

func TestExtract_FencedCodeSkipped(t *testing.T) {
	doc := []byte("# 4. Examples\n```json\n{\"note\": \"the server MUST ignore this\"}\n```\nServers MUST honor timeouts.\n")
	v, err := Extract("examples.md", "", doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(v.Requirements) != 1 {
		t.Fatalf("len = %d, want 1: %+v", len(v.Requirements), v.Requirements)
	}
	if v.Requirements[0].ID != "4-1" {
		t.Errorf("id = %q, want 4-1", v.Requirements[0].ID)
	}
}

func TestExtract_UnterminatedFence(t *testing.T) {
	doc := []byte("# 5. Broken\n```\nServers MUST something\n")
	_, err := Extract("broken.md", "", doc)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if perr.Doc != "broken.md" {
		t.Errorf("Doc = %q, want broken.md", perr.Doc)
	}
}

func TestExtract_PreambleSection(t *testing.T) {
	doc := []byte("Readers MUST read this notice.\n\n# 1. Intro\n")
	v, err := Extract("preamble.md", "", doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(v.Requirements) != 1 {
		t.Fatalf("len = %d, want 1", len(v.Requirements))
	}
	r := v.Requirements[0]
	if r.ID != "preamble-1" || r.Section != "preamble" {
		t.Errorf("id = %q section = %q, want preamble-1 / preamble", r.ID, r.Section)
	}
	if r.Category != "mandatory_general" {
		t.Errorf("category = %q, want mandatory_general", r.Category)
	}
}

func TestExtract_UnnumberedHeadingsNest(t *testing.T) {
	doc := []byte(`# Transport Layer
## Streaming
Servers MUST stream responses incrementally.
`)
	v, err := Extract("nest.md", "", doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(v.Requirements) != 1 {
		t.Fatalf("len = %d, want 1", len(v.Requirements))
	}
	r := v.Requirements[0]
	if r.ID != "transport-layer/streaming-1" {
		t.Errorf("id = %q, want transport-layer/streaming-1", r.ID)
	}
	if r.Category != "mandatory_transport_layer" {
		t.Errorf("category = %q, want mandatory_transport_layer", r.Category)
	}
}

func TestExtract_NumberedSubsections(t *testing.T) {
	doc := []byte(`# 4. Protocol
Servers MUST speak JSON-RPC.

## 4.2 Streaming
Servers SHOULD support streaming.

Clients MAY resubscribe.
`)
	v, err := Extract("proto.md", "", doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(v.Requirements) != 3 {
		t.Fatalf("len = %d, want 3", len(v.Requirements))
	}
	wantIDs := []string{"4-1", "4.2-1", "4.2-2"}
	for i, id := range wantIDs {
		if v.Requirements[i].ID != id {
			t.Errorf("req[%d].ID = %q, want %q", i, v.Requirements[i].ID, id)
		}
	}
	// Subsection requirements inherit the top-level topic.
	if v.Requirements[1].Category != "optional_protocol" {
		t.Errorf("category = %q, want optional_protocol", v.Requirements[1].Category)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	doc := []byte(`# 1. One
A MUST b.

# 2. Two
C SHOULD d.

E MAY f.
`)
	a, err := Extract("det.md", "", doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	b, err := Extract("det.md", "", doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(a.Requirements) != len(b.Requirements) {
		t.Fatalf("lengths differ: %d vs %d", len(a.Requirements), len(b.Requirements))
	}
	for i := range a.Requirements {
		if a.Requirements[i] != b.Requirements[i] {
			t.Errorf("req[%d] differs: %+v vs %+v", i, a.Requirements[i], b.Requirements[i])
		}
	}
	if a.Checksum != b.Checksum {
		t.Errorf("checksums differ")
	}
}

func TestExtract_VersionLabelFromFrontmatter(t *testing.T) {
	doc := []byte("---\nversion: \"0.3.0\"\n---\n# 1. A\nX MUST y.\n")
	v, err := Extract("fm.md", "", doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if v.Label != "0.3.0" {
		t.Errorf("label = %q, want 0.3.0", v.Label)
	}
}

func TestExtract_VersionLabelFallsBackToChecksum(t *testing.T) {
	doc := []byte("# 1. A\nX MUST y.\n")
	v, err := Extract("nofm.md", "", doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(v.Label) != 12 || v.Checksum[:12] != v.Label {
		t.Errorf("label = %q, want first 12 chars of checksum %q", v.Label, v.Checksum)
	}
}

func TestExtract_ExplicitLabelWins(t *testing.T) {
	doc := []byte("---\nversion: \"9.9\"\n---\n# 1. A\nX MUST y.\n")
	v, err := Extract("lbl.md", "baseline", doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if v.Label != "baseline" {
		t.Errorf("label = %q, want baseline", v.Label)
	}
}

func TestExtract_UnterminatedFrontmatter(t *testing.T) {
	doc := []byte("---\nversion: 1\n# 1. A\nX MUST y.\n")
	_, err := Extract("badfm.md", "", doc)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestExtract_InvalidFrontmatterYAML(t *testing.T) {
	doc := []byte("---\n: bad: yaml: {{{\n---\nX MUST y.\n")
	_, err := Extract("badyaml.md", "", doc)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestExtract_EmptyDocument(t *testing.T) {
	v, err := Extract("empty.md", "", []byte(""))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(v.Requirements) != 0 {
		t.Errorf("expected no requirements, got %+v", v.Requirements)
	}
}

func TestExtract_WhitespaceNormalized(t *testing.T) {
	doc := []byte("# 1. A\nServers   MUST\n respond\t promptly.\n")
	v, err := Extract("ws.md", "", doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(v.Requirements) != 1 {
		t.Fatalf("len = %d, want 1", len(v.Requirements))
	}
	if v.Requirements[0].Description != "Servers MUST respond promptly." {
		t.Errorf("description = %q", v.Requirements[0].Description)
	}
}

func TestSlug(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Transport Layer", "transport-layer"},
		{"JSON-RPC 2.0", "json-rpc-2-0"},
		{"  Spaced  Out  ", "spaced-out"},
		{"!!!", ""},
	}
	for _, c := range cases {
		if got := slug(c.in); got != c.want {
			t.Errorf("slug(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

package recovery

import (
	"testing"

	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

func TestGenerateTroubleshootingGuideDedicatedEntries(t *testing.T) {
	for _, kind := range []types.ErrorKind{types.ErrorKindConnection, types.ErrorKindConfiguration} {
		guide := GenerateTroubleshootingGuide(types.NewDebugError(kind, ""))
		if guide.Problem == genericGuide.Problem {
			t.Errorf("%s: expected a dedicated guide, got the generic one", kind)
		}
		if len(guide.Solutions) < 2 {
			t.Errorf("%s: dedicated guides carry at least two solutions, got %d", kind, len(guide.Solutions))
		}
		for _, sol := range guide.Solutions {
			if len(sol.Steps) == 0 || sol.Difficulty == "" || sol.EstimatedTime == "" {
				t.Errorf("%s: incomplete solution %+v", kind, sol)
			}
		}
	}
}

func TestGenerateTroubleshootingGuideGenericFallthrough(t *testing.T) {
	for _, kind := range []types.ErrorKind{
		types.ErrorKindHandshake,
		types.ErrorKindTimeout,
		types.ErrorKindUnknown,
		types.ErrorKind("nonsense"),
	} {
		guide := GenerateTroubleshootingGuide(types.NewDebugError(kind, ""))
		if guide.Problem != genericGuide.Problem {
			t.Errorf("%s: expected the generic guide, got %q", kind, guide.Problem)
		}
	}
}

func TestGenericRecommendations(t *testing.T) {
	if recs := GenericRecommendations(types.ErrorKindConnection); len(recs) == 0 {
		t.Error("connection kind must have recommendations")
	}
	unknown := GenericRecommendations(types.ErrorKindUnknown)
	if len(unknown) != len(fallbackRecommendations) {
		t.Errorf("unknown kind must get the fallback list, got %v", unknown)
	}

	// Callers get copies, not the shared backing arrays.
	recs := GenericRecommendations(types.ErrorKindTimeout)
	recs[0] = "mutated"
	if GenericRecommendations(types.ErrorKindTimeout)[0] == "mutated" {
		t.Error("returned slice must be a copy")
	}
}

package policy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/davidahmann/provenant/pkg/types"
)

func piiPolicy() types.VetoPolicy {
	return types.VetoPolicy{
		Name:     "PII handling",
		IsActive: true,
		TriggerConditions: []types.TriggerCondition{
			{Type: types.TriggerKeyword, Keywords: []string{"pii", "personal data"}, AgentToNotify: types.RoleCompliance},
		},
	}
}

func TestAddMintsIDAndValidates(t *testing.T) {
	r := NewRegistry()

	added, err := r.Add(piiPolicy())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.PolicyID == "" {
		t.Fatalf("policy id not minted")
	}
	if got, ok := r.Policy(added.PolicyID); !ok || got.Name != "PII handling" {
		t.Fatalf("policy lookup: ok=%v got=%+v", ok, got)
	}
}

func TestAddRejectsBadTriggers(t *testing.T) {
	r := NewRegistry()

	cases := []struct {
		name string
		p    types.VetoPolicy
	}{
		{"no name", types.VetoPolicy{TriggerConditions: []types.TriggerCondition{{Type: types.TriggerKeyword, Keywords: []string{"x"}, AgentToNotify: types.RoleRisk}}}},
		{"no triggers", types.VetoPolicy{Name: "empty"}},
		{"unknown type", types.VetoPolicy{Name: "p", TriggerConditions: []types.TriggerCondition{{Type: "regex", AgentToNotify: types.RoleRisk}}}},
		{"keyword without keywords", types.VetoPolicy{Name: "p", TriggerConditions: []types.TriggerCondition{{Type: types.TriggerKeyword, AgentToNotify: types.RoleRisk}}}},
		{"amount without operator", types.VetoPolicy{Name: "p", TriggerConditions: []types.TriggerCondition{{Type: types.TriggerAmount, Threshold: 10, AgentToNotify: types.RoleFinance}}}},
		{"unknown role", types.VetoPolicy{Name: "p", TriggerConditions: []types.TriggerCondition{{Type: types.TriggerKeyword, Keywords: []string{"x"}, AgentToNotify: "janitor"}}}},
	}
	for _, tc := range cases {
		if _, err := r.Add(tc.p); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestToggle(t *testing.T) {
	r := NewRegistry()
	added, _ := r.Add(piiPolicy())

	toggled, err := r.Toggle(added.PolicyID, false)
	if err != nil || toggled.IsActive {
		t.Fatalf("toggle off: err=%v active=%v", err, toggled.IsActive)
	}
	if _, err := r.Toggle("ghost", true); !errors.Is(err, ErrPolicyNotFound) {
		t.Fatalf("expected ErrPolicyNotFound, got %v", err)
	}
}

func TestRequiredReviewersKeyword(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Add(piiPolicy()); err != nil {
		t.Fatalf("add: %v", err)
	}

	got := r.RequiredReviewers(Proposal{Title: "Delete customer PII records"})
	if len(got) != 1 || got[0] != types.RoleCompliance {
		t.Fatalf("reviewers = %v, want [compliance]", got)
	}
}

func TestRequiredReviewersAmountAndCategory(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Add(types.VetoPolicy{
		Name:     "Large spend",
		IsActive: true,
		TriggerConditions: []types.TriggerCondition{
			{Type: types.TriggerAmount, Operator: ">", Threshold: 10000, AgentToNotify: types.RoleFinance},
			{Type: types.TriggerCategory, Categories: []string{"legal", "contracts"}, AgentToNotify: types.RoleLegal},
		},
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	amount := int64(50000)
	got := r.RequiredReviewers(Proposal{Title: "New vendor", Category: "Contracts", Amount: &amount})
	if len(got) != 2 || got[0] != types.RoleFinance || got[1] != types.RoleLegal {
		t.Fatalf("reviewers = %v, want [finance legal]", got)
	}

	// Below the threshold and outside the category set, the floor applies.
	small := int64(500)
	got = r.RequiredReviewers(Proposal{Title: "Team lunch", Category: "food", Amount: &small})
	if len(got) != 1 || got[0] != types.RoleRisk {
		t.Fatalf("reviewers = %v, want [risk]", got)
	}
}

func TestInactivePoliciesIgnored(t *testing.T) {
	r := NewRegistry()
	added, _ := r.Add(piiPolicy())
	if _, err := r.Toggle(added.PolicyID, false); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	got := r.RequiredReviewers(Proposal{Title: "Delete customer PII records"})
	if len(got) != 1 || got[0] != types.RoleRisk {
		t.Fatalf("reviewers = %v, want risk floor", got)
	}
}

func TestRiskFloorAlwaysApplies(t *testing.T) {
	r := NewRegistry()
	got := r.RequiredReviewers(Proposal{Title: "Totally mundane"})
	if len(got) != 1 || got[0] != types.RoleRisk {
		t.Fatalf("reviewers = %v, want [risk]", got)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policies.yaml")
	content := `
policies:
  - name: PII handling
    is_active: true
    trigger_conditions:
      - type: keyword
        keywords: [pii, gdpr]
        agent_to_notify: compliance
  - name: Big spend
    is_active: true
    trigger_conditions:
      - type: amount
        operator: ">"
        threshold: 25000
        agent_to_notify: finance
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewRegistry()
	loaded, err := r.LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded = %d", len(loaded))
	}
	if len(r.Policies()) != 2 {
		t.Fatalf("registry size = %d", len(r.Policies()))
	}
}

func TestLoadFileRejectsBadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	content := `
policies:
  - name: broken
    trigger_conditions:
      - type: keyword
        agent_to_notify: compliance
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewRegistry()
	if _, err := r.LoadFile(path); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(r.Policies()) != 0 {
		t.Fatalf("bad load should register nothing")
	}
}

package security

import "testing"

func TestCommandRiskLevel(t *testing.T) {
	p := NewPolicy("/workspace")

	cases := []struct {
		name    string
		command string
		want    CommandRiskLevel
	}{
		{"low: ls", "ls -la", RiskLow},
		{"low: cat", "cat file.txt", RiskLow},
		{"medium: git commit", "git commit -m wip", RiskMedium},
		{"medium: mkdir", "mkdir newdir", RiskMedium},
		{"high: rm", "rm -rf build", RiskHigh},
		{"high: curl", "curl https://example.com", RiskHigh},
		{"high: rm -rf root", "rm -rf /", RiskHigh},
		{"high: fork bomb", ":(){:|:&};:", RiskHigh},
		{"medium wins over later low segment", "git push; ls", RiskMedium},
		{"high short-circuits even with earlier medium", "git commit -m x; sudo rm -rf /", RiskHigh},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := p.CommandRiskLevel(c.command); got != c.want {
				t.Errorf("CommandRiskLevel(%q) = %v, want %v", c.command, got, c.want)
			}
		})
	}
}

func TestIsCommandAllowed(t *testing.T) {
	p := NewPolicy("/workspace")

	allowed := []string{
		`ls -la`,
		`git status`,
		`echo "hello world"`,
	}
	for _, cmd := range allowed {
		if !p.IsCommandAllowed(cmd) {
			t.Errorf("expected %q to be allowed", cmd)
		}
	}

	blocked := []string{
		"ls `whoami`",
		"echo $HOME",
		"cat <(ls)",
		"ls > out.txt",
		"ls < in.txt",
		"ls | tee out.txt",
		"ls &",
		"python3 script.py",
		"find . -exec rm {} \\;",
		"git -c foo=bar status",
	}
	for _, cmd := range blocked {
		if p.IsCommandAllowed(cmd) {
			t.Errorf("expected %q to be blocked", cmd)
		}
	}
}

func TestIsCommandAllowedReadOnly(t *testing.T) {
	p := NewPolicy("/workspace")
	p.Autonomy = AutonomyReadOnly
	if p.IsCommandAllowed("ls") {
		t.Error("read-only autonomy must reject every command")
	}
}

func TestValidateCommandExecutionRequiresApproval(t *testing.T) {
	p := NewPolicy("/workspace")

	if _, err := p.ValidateCommandExecution("git commit -m wip", false); err == nil {
		t.Error("expected medium-risk command to require approval")
	}
	if _, err := p.ValidateCommandExecution("git commit -m wip", true); err != nil {
		t.Errorf("approved medium-risk command should pass: %v", err)
	}
	if _, err := p.ValidateCommandExecution("rm -rf x", true); err == nil {
		t.Error("expected high-risk command to stay blocked even when approved (BlockHighRiskCommands=true)")
	}
}

func TestIsPathAllowed(t *testing.T) {
	p := NewPolicy("/workspace")

	if !p.IsPathAllowed("relative/file.txt") {
		t.Error("relative path under workspace should be allowed")
	}
	if p.IsPathAllowed("/etc/passwd") {
		t.Error("forbidden path prefix should be rejected")
	}
	if p.IsPathAllowed("../escape") {
		t.Error("parent-dir traversal should be rejected")
	}
	if p.IsPathAllowed("a/..%2f/b") {
		t.Error("encoded traversal should be rejected")
	}
	if p.IsPathAllowed("~otheruser/file") {
		t.Error("~user form should be rejected")
	}
	if p.IsPathAllowed("/abs/path") {
		t.Error("workspace_only should reject absolute paths")
	}
}

func TestActionRateLimit(t *testing.T) {
	p := NewPolicy("/workspace")
	p.MaxActionsPerHour = 2

	if err := p.EnforceToolOperation(OpAct, "shell"); err != nil {
		t.Fatalf("first action should be allowed: %v", err)
	}
	if err := p.EnforceToolOperation(OpAct, "shell"); err != nil {
		t.Fatalf("second action should be allowed: %v", err)
	}
	if err := p.EnforceToolOperation(OpAct, "shell"); err == nil {
		t.Fatal("third action should exceed the budget")
	}
}

func TestEnforceToolOperationReadOnlyBlocksAct(t *testing.T) {
	p := NewPolicy("/workspace")
	p.Autonomy = AutonomyReadOnly

	if err := p.EnforceToolOperation(OpRead, "agents_list"); err != nil {
		t.Errorf("read operations should never be blocked: %v", err)
	}
	if err := p.EnforceToolOperation(OpAct, "agents_send"); err == nil {
		t.Error("act operations must be blocked in read-only mode")
	}
}

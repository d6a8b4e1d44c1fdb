package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/forgecheck/internal/compliance"
	"github.com/wharflab/forgecheck/internal/diag"
	"github.com/wharflab/forgecheck/internal/multilevel"
	"github.com/wharflab/forgecheck/internal/testutil"
	"github.com/wharflab/forgecheck/internal/validator"
)

const apacheHref = "https://github.com/puppetlabs/puppetlabs-apache/blob/main/"

// sampleReport selects 4.0 over 3.5: 3.5 has a syntax error that 4.0 does
// not, and both share the lint warning.
func sampleReport(t *testing.T) Report {
	t.Helper()

	arrow := testutil.Warning(diag.CategoryLint, "arrow should be aligned", "manifests/init.pp", 7)
	levels := testutil.Select(t, compliance.Puppet35, compliance.Puppet40, map[compliance.Level][]*diag.Diagnostic{
		compliance.Puppet35: {
			testutil.Error(diag.CategorySyntax, "unless is not supported", "manifests/init.pp", 3),
			arrow,
		},
		compliance.Puppet40: {
			arrow,
			testutil.Warning(diag.CategorySemantic, "import is deprecated", "manifests/params.pp", 1),
		},
	})

	return Report{
		Result: &validator.Result{
			Dir: "/src/apache",
			Diagnostics: []*diag.Diagnostic{
				diag.New(diag.SeverityInfo, diag.CategoryModule, validator.ReleasePrefix+"puppetlabs-apache-1.10.0"),
			},
			Levels:      levels,
			Differences: multilevel.FilterLevelDiagnostics(levels),
		},
		Impact:     validator.ImpactFailOnAll,
		HrefPrefix: validator.HrefPrefix("https://github.com/puppetlabs/puppetlabs-apache.git", "main"),
	}
}

func TestTextReporter(t *testing.T) {
	noColor := false
	var buf bytes.Buffer
	r := NewTextReporter(&buf, TextOptions{Color: &noColor, ShowDiff: true})
	require.NoError(t, r.Report(sampleReport(t)))

	want := "Best compliance level: 4.0 (PUPPET_4_0)\n" +
		"INFO module: Release: puppetlabs-apache-1.10.0\n" +
		"WARNING lint: arrow should be aligned\n" +
		"  manifests/init.pp:7 " + apacheHref + "manifests/init.pp#L7\n" +
		"WARNING semantic: import is deprecated\n" +
		"  manifests/params.pp:1 " + apacheHref + "manifests/params.pp#L1\n" +
		"\nOnly at other compliance levels:\n" +
		"ERROR [3.5] syntax: unless is not supported\n" +
		"  manifests/init.pp:3 " + apacheHref + "manifests/init.pp#L3\n" +
		"\nPASS 2 warnings (fail: On no success)\n"
	assert.Equal(t, want, buf.String())
}

func TestTextReporterHideDiffAndFail(t *testing.T) {
	noColor := false
	rep := sampleReport(t)
	rep.Impact = validator.ImpactFailOnAny

	var buf bytes.Buffer
	require.NoError(t, NewTextReporter(&buf, TextOptions{Color: &noColor}).Report(rep))

	out := buf.String()
	assert.NotContains(t, out, "Only at other compliance levels")
	assert.NotContains(t, out, "unless is not supported")
	assert.True(t, strings.HasSuffix(out, "\nFAIL 2 warnings (fail: On any error)\n"), out)
}

func TestTextReporterSnapshot(t *testing.T) {
	noColor := false
	var buf bytes.Buffer
	require.NoError(t, NewTextReporter(&buf, TextOptions{Color: &noColor, ShowDiff: true}).Report(sampleReport(t)))
	testutil.MatchTextSnapshot(t, "txt", buf.String())
}

func TestJSONReporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONReporter(&buf, "1.2.3").Report(sampleReport(t)))

	var out struct {
		Release   string `json:"release"`
		BestLevel string `json:"best_level"`
		Severity  string `json:"severity"`
		Passed    bool   `json:"passed"`
		Summary   string `json:"summary"`
		Levels    []struct {
			Level  string      `json:"level"`
			Name   string      `json:"name"`
			Counts diag.Counts `json:"counts"`
		} `json:"levels"`
		Differences []struct {
			Level       string `json:"level"`
			Diagnostics []struct {
				Message string `json:"message"`
			} `json:"diagnostics"`
		} `json:"differences"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out), buf.String())

	assert.Equal(t, "puppetlabs-apache-1.10.0", out.Release)
	assert.Equal(t, "4.0", out.BestLevel)
	assert.True(t, out.Passed)
	assert.Equal(t, "2 warnings", out.Summary)
	require.Len(t, out.Levels, 2)
	assert.Equal(t, "PUPPET_3_5", out.Levels[0].Name)
	assert.Equal(t, diag.Counts{Errors: 1, Warnings: 1}, out.Levels[0].Counts)
	require.Len(t, out.Differences, 1)
	assert.Equal(t, "3.5", out.Differences[0].Level)
	require.Len(t, out.Differences[0].Diagnostics, 1)
	assert.Equal(t, "unless is not supported", out.Differences[0].Diagnostics[0].Message)

	snaps.WithConfig(snaps.JSON(snaps.JSONConfig{
		SortKeys: true,
		Indent:   "  ",
	})).MatchStandaloneJSON(t, buf.String())
}

func TestJSONReporterNoModules(t *testing.T) {
	rep := Report{
		Result: &validator.Result{Diagnostics: []*diag.Diagnostic{
			diag.New(diag.SeverityError, diag.CategoryModule, validator.MessageNoModules),
		}},
		Impact: validator.ImpactDoNotFail,
	}

	var buf bytes.Buffer
	require.NoError(t, NewJSONReporter(&buf, "").Report(rep))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, false, out["passed"])
	assert.Equal(t, []any{}, out["levels"])
	assert.Equal(t, []any{}, out["differences"])
	assert.NotContains(t, out, "best_level")
}

func TestSARIFReporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSARIFReporter(&buf, "", "1.2.3", "").Report(sampleReport(t)))

	var out struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name    string `json:"name"`
					Version string `json:"version"`
					Rules   []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID  string `json:"ruleId"`
				Level   string `json:"level"`
				Message struct {
					Text string `json:"text"`
				} `json:"message"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
						Region *struct {
							StartLine int `json:"startLine"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out), buf.String())

	assert.Equal(t, "2.1.0", out.Version)
	require.Len(t, out.Runs, 1)
	run := out.Runs[0]
	assert.Equal(t, "forgecheck", run.Tool.Driver.Name)
	assert.Equal(t, "1.2.3", run.Tool.Driver.Version)

	ruleIDs := make([]string, 0, len(run.Tool.Driver.Rules))
	for _, r := range run.Tool.Driver.Rules {
		ruleIDs = append(ruleIDs, r.ID)
	}
	assert.Equal(t, []string{"forgecheck/lint", "forgecheck/module", "forgecheck/semantic"}, ruleIDs)

	// Only the visible diagnostics are reported; 3.5's syntax error is not.
	require.Len(t, run.Results, 3)
	assert.Equal(t, "note", run.Results[0].Level)
	assert.Empty(t, run.Results[0].Locations)

	arrow := run.Results[1]
	assert.Equal(t, "forgecheck/lint", arrow.RuleID)
	assert.Equal(t, "warning", arrow.Level)
	require.Len(t, arrow.Locations, 1)
	assert.Equal(t, "manifests/init.pp", arrow.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	require.NotNil(t, arrow.Locations[0].PhysicalLocation.Region)
	assert.Equal(t, 7, arrow.Locations[0].PhysicalLocation.Region.StartLine)
}

func TestGitHubActionsReporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewGitHubActionsReporter(&buf).Report(sampleReport(t)))

	want := "::notice title=forgecheck module (Puppet 4.0)::Release: puppetlabs-apache-1.10.0\n" +
		"::warning file=manifests/init.pp,line=7,title=forgecheck lint (Puppet 4.0)::arrow should be aligned\n" +
		"::warning file=manifests/params.pp,line=1,title=forgecheck semantic (Puppet 4.0)::import is deprecated\n"
	assert.Equal(t, want, buf.String())
}

func TestGitHubActionsEscaping(t *testing.T) {
	tests := []struct {
		in, message, property string
	}{
		{"plain", "plain", "plain"},
		{"50%", "50%25", "50%25"},
		{"a\nb", "a%0Ab", "a%0Ab"},
		{"file:1,2", "file:1,2", "file%3A1%2C2"},
	}
	for _, tt := range tests {
		if got := escapeGitHubMessage(tt.in); got != tt.message {
			t.Errorf("escapeGitHubMessage(%q) = %q, want %q", tt.in, got, tt.message)
		}
		if got := escapeGitHubProperty(tt.in); got != tt.property {
			t.Errorf("escapeGitHubProperty(%q) = %q, want %q", tt.in, got, tt.property)
		}
	}
}

func TestMarkdownReporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownReporter(&buf, true).Report(sampleReport(t)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "**✅ Passed**: 2 warnings\n\n"), out)
	assert.Contains(t, out, "- Release: `puppetlabs-apache-1.10.0`\n")
	assert.Contains(t, out, "- Best compliance level: `4.0`\n")
	assert.Contains(t, out, "| [`manifests/init.pp`]("+apacheHref+"manifests/init.pp#L7) | 7 | ⚠️ arrow should be aligned |\n")
	assert.Contains(t, out, "| - | - | ℹ️ Release: puppetlabs-apache-1.10.0 |\n")
	assert.Contains(t, out, "| 3.5 | [`manifests/init.pp`]("+apacheHref+"manifests/init.pp#L3) | 3 | ❌ unless is not supported |\n")
}

func TestMarkdownReporterEscapes(t *testing.T) {
	assert.Equal(t, `a \| b c`, escapeMarkdown("a | b\nc"))
}

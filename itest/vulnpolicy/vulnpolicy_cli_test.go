package vulnpolicy

import (
	. "github.com/aquasecurity/vulnpolicy/itest/matcher"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gbytes"
	. "github.com/onsi/gomega/gexec"

	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aquasecurity/vulnpolicy/pkg/report"
	"github.com/aquasecurity/vulnpolicy/pkg/severity"
	"sigs.k8s.io/yaml"
)

const (
	exitCodeOK        = 0
	exitCodeError     = 1
	exitCodeViolation = 2
)

func fixture(name string) string {
	path, err := filepath.Abs(filepath.Join("testdata", name))
	Expect(err).ToNot(HaveOccurred())
	return path
}

var _ = Describe("vulnpolicy CLI", func() {

	var (
		projectDir string
		env        []string
	)

	start := func(stdin string, args ...string) *Session {
		command := exec.Command(pathToVulnpolicyCLI, args...)
		command.Dir = projectDir
		command.Env = env
		if stdin != "" {
			command.Stdin = strings.NewReader(stdin)
		}
		session, err := Start(command, GinkgoWriter, GinkgoWriter)
		Expect(err).ToNot(HaveOccurred())
		return session
	}

	BeforeEach(func() {
		var err error
		projectDir, err = os.MkdirTemp("", "vulnpolicy-project-")
		Expect(err).ToNot(HaveOccurred())
		env = []string{
			"PATH=" + os.Getenv("PATH"),
			"NO_COLOR=true",
			"NPM_AUDIT_REPORT=" + fixture("npm-audit-v1.json"),
		}
	})

	AfterEach(func() {
		Expect(os.RemoveAll(projectDir)).To(Succeed())
	})

	Describe("Command version", func() {

		It("should print the version information", func() {
			session := start("", "version")
			Eventually(session).Should(Exit(exitCodeOK))
			Expect(session.Out).To(Say(regexp.QuoteMeta(`vulnpolicy Version: {Version:dev Commit:none Date:unknown}`)))
		})

	})

	Describe("Command check", func() {

		It("should exit with violation code when vulnerabilities are above level", func() {
			session := start("", "check", "--npm", pathToFakeNpm, "--level", "moderate")
			Eventually(session, 10*time.Second).Should(Exit(exitCodeViolation))
			Expect(session.Out).To(Say(`Found vulnerabilities above the value "moderate": 1 moderate, 1 critical`))
			Expect(session.Err).ToNot(Say("error:"))
		})

		It("should run npm audit in the specified directory", func() {
			dirLog := filepath.Join(projectDir, "dir.log")
			auditedDir := filepath.Join(projectDir, "web")
			Expect(os.Mkdir(auditedDir, 0755)).To(Succeed())
			env = append(env, "NPM_AUDIT_DIR_LOG="+dirLog)

			session := start("", "check", "--npm", pathToFakeNpm, "--dir", auditedDir, "--level", "critical", "--skip", "786")
			Eventually(session, 10*time.Second).Should(Exit(exitCodeOK))
			Expect(session.Out).To(Say(`No vulnerabilities above the value "critical"`))

			loggedDir, err := os.ReadFile(dirLog)
			Expect(err).ToNot(HaveOccurred())
			expectedDir, err := filepath.EvalSymlinks(auditedDir)
			Expect(err).ToNot(HaveOccurred())
			Expect(strings.TrimSpace(string(loggedDir))).To(Equal(expectedDir))
		})

		It("should read the policy from environment and the policy file", func() {
			Expect(os.WriteFile(filepath.Join(projectDir, ".vulnpolicy.yaml"), []byte("level: low\nskip:\n  - 1523\n"), 0644)).To(Succeed())
			env = append(env,
				"VULNPOLICY_NPM_BINARY="+pathToFakeNpm,
				"VULNPOLICY_OUTPUT=yaml",
				"NPM_AUDIT_REPORT="+fixture("npm-audit-v2.json"),
			)

			session := start("", "check")
			Eventually(session, 10*time.Second).Should(Exit(exitCodeViolation))

			var actual report.Report
			Expect(yaml.Unmarshal(session.Out.Contents(), &actual)).To(Succeed())
			Expect(actual).To(IsViolatedReportFor(severity.Low,
				report.SummaryEntry{Severity: severity.Moderate, Count: 1},
				report.SummaryEntry{Severity: severity.Critical, Count: 1},
			))
			Expect(actual.Skip).To(Equal([]string{"1523"}))
		})

		It("should fail when npm is too old to audit", func() {
			env = append(env, "NPM_VERSION=5.10.0")
			session := start("", "check", "--npm", pathToFakeNpm, "--level", "low")
			Eventually(session, 10*time.Second).Should(Exit(exitCodeError))
			Expect(session.Err).To(Say(regexp.QuoteMeta(`error: unsupported npm version: 5.10.0, required >= 6.0.0`)))
		})

		It("should fail when npm cannot be found", func() {
			session := start("", "check", "--npm", filepath.Join(projectDir, "missing-npm"), "--level", "low")
			Eventually(session, 10*time.Second).Should(Exit(exitCodeError))
			Expect(session.Err).To(Say("error: "))
		})

	})

	Describe("Command evaluate", func() {

		It("should print JSON report of the existing npm audit report", func() {
			session := start("", "evaluate", fixture("npm-audit-v1.json"), "--level", "high", "-o", "json", "-v", "4")
			Eventually(session).Should(Exit(exitCodeViolation))

			var actual report.Report
			Expect(json.Unmarshal(session.Out.Contents(), &actual)).To(Succeed())
			Expect(actual).To(IsViolatedReportFor(severity.High,
				report.SummaryEntry{Severity: severity.Critical, Count: 1},
			))
			Expect(actual.Vulnerabilities).To(HaveLen(1))
			Expect(actual.Vulnerabilities[0].ID).To(Equal("786"))
		})

		It("should read npm audit report from standard input", func() {
			input, err := os.ReadFile(fixture("npm-audit-v2.json"))
			Expect(err).ToNot(HaveOccurred())

			session := start(string(input), "evaluate", "--level", "critical", "--skip", "1097677", "-o", "json")
			Eventually(session).Should(Exit(exitCodeOK))

			var actual report.Report
			Expect(json.Unmarshal(session.Out.Contents(), &actual)).To(Succeed())
			Expect(actual).To(IsPassedReportFor(severity.Critical))
		})

		It("should fail when level is not recognized", func() {
			session := start("", "evaluate", fixture("npm-audit-v1.json"), "--level", "urgent")
			Eventually(session).Should(Exit(exitCodeError))
			Expect(session.Err).To(Say(`error: invalid configuration: wrong level option, should be one of: 'info', 'low', 'moderate', 'high', 'critical'`))
		})

	})

})

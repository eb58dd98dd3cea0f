package audit

import "encoding/json"

// Report is the document printed by npm audit --json.
//
// npm 6 prints report version 1 with advisories keyed by their identifiers.
// npm 7 and later print report version 2 with vulnerable packages keyed by
// package names.
type Report struct {
	AuditReportVersion int             `json:"auditReportVersion"`
	Advisories         json.RawMessage `json:"advisories"`
	Vulnerabilities    json.RawMessage `json:"vulnerabilities"`
}

// Advisory is an entry of the advisories object in report version 1.
type Advisory struct {
	ID         interface{} `json:"id"`
	ModuleName string      `json:"module_name"`
	Severity   string      `json:"severity"`
	Title      string      `json:"title"`
	URL        string      `json:"url"`
}

// Package is an entry of the vulnerabilities object in report version 2.
type Package struct {
	Name     string `json:"name"`
	Severity string `json:"severity"`
	// Via holds either names of vulnerable dependencies or advisories
	// affecting the package directly.
	Via []json.RawMessage `json:"via"`
}

// Source is an advisory affecting a package directly in report version 2.
type Source struct {
	Source   interface{} `json:"source"`
	Name     string      `json:"name"`
	Title    string      `json:"title"`
	URL      string      `json:"url"`
	Severity string      `json:"severity"`
}

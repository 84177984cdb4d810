package mcpserver

// ManifestFormatContract describes the canonical test-suite manifest format
// that suite authors must follow so their tests map onto requirements.
const ManifestFormatContract = `# Test-Suite Manifest Contract

The analyzer maps tests to specification requirements through a YAML
manifest. Every test record MUST follow this structure.

## Structure

` + "```" + `yaml
suite: a2a-tck                      # suite name, informational
tests:
  - id: test_message_send_valid     # REQUIRED - unique within the manifest
    category: mandatory_jsonrpc     # REQUIRED - grouping label for reports
    requirements:                   # OPTIONAL - requirement identifiers
      - 4.1-1                       #   this test claims to validate
      - 4.1-2
  - id: test_agent_card_served
    category: mandatory_discovery
    requirements: [5-1]
` + "```" + `

## Rules

1. **Test ids are unique.** A duplicate id fails manifest loading.
2. **Category is required.** Use lowercase snake_case labels; the
   convention is an obligation class prefix plus a topic, for example
   ` + "`mandatory_jsonrpc`" + ` or ` + "`optional_features`" + `.
3. **Requirement identifiers are structural**: section path plus ordinal,
   exactly as the extractor derives them (` + "`4.2-3`" + ` is the third
   requirement of section 4.2). Copy them from the requirements listing,
   do not invent them.
4. **An empty requirements list is allowed** but marks the test as
   undocumented, which lowers the suite's documentation percentage.
5. **References to identifiers absent from the latest spec** are reported
   as dangling-reference warnings. They do not fail the run, but they
   never count toward coverage either.
6. **Order matters for readability only**; the analyzer sorts its output
   deterministically regardless of manifest order.
`

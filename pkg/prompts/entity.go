package prompts

import (
	"strings"

	"mercator-hq/scribe/pkg/fields"
	"mercator-hq/scribe/pkg/providers"
)

// NotSpecified replaces missing attributes in entity blocks. Lines are never
// omitted so that every prompt of a field type has the same shape.
const NotSpecified = "Not specified"

// attr is one line of an entity block. The first non-empty attribute among
// keys supplies the value.
type attr struct {
	label string
	keys  []string
}

func a(label string, keys ...string) attr {
	return attr{label: label, keys: keys}
}

// entityBlock describes the entity a category of field types is about.
type entityBlock struct {
	heading string
	attrs   []attr
}

var entityBlocks = map[fields.Category]entityBlock{
	fields.CategoryAudit: {"Audit Information", []attr{
		a("Title", "title", "name"),
		a("Audit Type", "audit_type", "type"),
		a("Business Unit", "business_unit", "department"),
		a("Scope", "scope"),
		a("Audit Period", "period", "audit_period"),
	}},
	fields.CategoryRisk: {"Risk Information", []attr{
		a("Title", "title", "name"),
		a("Risk Category", "category", "risk_category", "type"),
		a("Business Unit", "business_unit", "department"),
		a("Likelihood", "likelihood"),
		a("Impact", "impact"),
		a("Risk Owner", "owner", "risk_owner"),
	}},
	fields.CategoryPolicy: {"Policy Information", []attr{
		a("Title", "title", "name"),
		a("Policy Type", "policy_type", "type"),
		a("Business Unit", "business_unit", "department"),
		a("Scope", "scope"),
		a("Regulatory Framework", "framework", "regulation"),
	}},
	fields.CategoryControl: {"Control Information", []attr{
		a("Title", "title", "name"),
		a("Control Type", "control_type", "type"),
		a("Control Owner", "owner", "control_owner"),
		a("Frequency", "frequency"),
		a("Related Risk", "related_risk", "risk"),
	}},
	fields.CategoryFinding: {"Finding Information", []attr{
		a("Title", "title", "name"),
		a("Severity", "severity", "rating"),
		a("Related Audit", "audit_title", "audit"),
		a("Business Unit", "business_unit", "department"),
		a("Control Area", "control_area", "area"),
	}},
	fields.CategoryBCP: {"Continuity Plan Information", []attr{
		a("Title", "title", "name"),
		a("Business Unit", "business_unit", "department"),
		a("Critical Process", "critical_process", "process"),
		a("Recovery Time Objective", "rto"),
		a("Recovery Point Objective", "rpo"),
	}},
	fields.CategoryVendor: {"Vendor Information", []attr{
		a("Vendor Name", "vendor_name", "title", "name"),
		a("Service Provided", "service", "services"),
		a("Criticality", "criticality", "tier"),
		a("Contract Value", "contract_value"),
		a("Data Access", "data_access"),
	}},
	fields.CategoryIncident: {"Incident Information", []attr{
		a("Title", "title", "name"),
		a("Incident Type", "incident_type", "type"),
		a("Severity", "severity"),
		a("Detected On", "detected_at", "date"),
		a("Affected Systems", "affected_systems", "systems"),
	}},
	fields.CategoryTraining: {"Training Information", []attr{
		a("Title", "title", "name"),
		a("Target Audience", "audience"),
		a("Delivery Method", "delivery_method", "format"),
		a("Duration", "duration"),
		a("Topic Area", "topic", "category"),
	}},
	fields.CategorySecurity: {"Security Context", []attr{
		a("Subject", "title", "name"),
		a("Asset", "asset", "system"),
		a("Threat Category", "threat_category", "category"),
		a("Data Classification", "classification", "data_classification"),
		a("Environment", "environment"),
	}},
	fields.CategoryResilience: {"Resilience Context", []attr{
		a("Title", "title", "name"),
		a("Important Business Service", "business_service", "service"),
		a("Business Unit", "business_unit", "department"),
		a("Impact Tolerance", "impact_tolerance"),
		a("Key Dependencies", "dependencies"),
	}},
	fields.CategorySupplyChain: {"Supply Chain Context", []attr{
		a("Title", "title", "name"),
		a("Supplier", "supplier", "vendor_name"),
		a("Region", "region", "country"),
		a("Commodity or Service", "commodity", "service"),
		a("Supplier Tier", "supplier_tier", "tier"),
	}},
}

// renderEntity writes the entity block for the request's category. The
// free-text context is always the last line.
func renderEntity(b *strings.Builder, req *providers.GenerationRequest) {
	block, ok := entityBlocks[req.Field().Category()]
	if !ok {
		block = entityBlock{heading: "Entity Information", attrs: []attr{a("Title", "title", "name")}}
	}

	b.WriteString(block.heading)
	b.WriteString(":\n")
	for _, at := range block.attrs {
		writeLine(b, at.label, lookup(req, at.keys...))
	}
	writeLine(b, "Additional Context", strings.TrimSpace(req.Context))
}

func writeLine(b *strings.Builder, label, value string) {
	if value == "" {
		value = NotSpecified
	}
	b.WriteString("- ")
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}

func lookup(req *providers.GenerationRequest, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(req.Attribute(k)); v != "" {
			return v
		}
	}
	return ""
}

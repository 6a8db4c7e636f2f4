package prompts

import (
	"strings"

	"mercator-hq/scribe/pkg/fields"
	"mercator-hq/scribe/pkg/providers"
)

// auditFocus holds audit-type-specific focus areas for objectives.
var auditFocus = map[string]string{
	"internal":      "Focus on the effectiveness of governance, risk management and internal control processes, and on operational efficiency.",
	"external":      "Focus on the fair presentation of financial statements, reliance on internal controls over financial reporting and independent assurance for stakeholders.",
	"compliance":    "Focus on adherence to applicable laws, regulations, contractual obligations and internal policies, and on the processes that monitor compliance.",
	"operational":   "Focus on the efficiency and effectiveness of operations, resource utilization, process performance and achievement of business targets.",
	"financial":     "Focus on the accuracy and completeness of financial records, safeguarding of assets, authorization of transactions and financial reporting controls.",
	"it":            "Focus on IT general controls, access management, change management, data integrity, cybersecurity and IT service continuity.",
	"quality":       "Focus on conformance with the quality management system, process consistency, defect prevention and continual improvement (e.g., ISO 9001).",
	"environmental": "Focus on environmental management, regulatory permits, emissions and waste handling, and sustainability commitments (e.g., ISO 14001).",
}

const genericAuditFocus = "Focus on the design and operating effectiveness of key controls, compliance with relevant requirements and opportunities for improvement."

// AuditFocus returns the objectives guidance for an audit type. Unknown or
// empty types get generic guidance.
func AuditFocus(auditType string) string {
	key := strings.ToLower(strings.TrimSpace(auditType))
	key = strings.TrimSuffix(key, " audit")
	switch key {
	case "information technology", "it security", "technology":
		key = "it"
	case "regulatory":
		key = "compliance"
	case "financial statement":
		key = "external"
	}
	if focus, ok := auditFocus[key]; ok {
		return focus
	}
	return genericAuditFocus
}

func objectivesGuidance(req *providers.GenerationRequest) string {
	auditType := lookup(req, "audit_type", "type")
	label := auditType
	if label == "" {
		label = "general"
	}
	return "Audit Type Guidance (" + label + "): " + AuditFocus(auditType)
}

// vendorAssessment is shared by the vendor assessment variants.
func vendorAssessment(area string, points ...string) Recipe {
	guidelines := append([]string{
		"Structure the assessment as: overall rating rationale, key strengths, key concerns, and recommended actions.",
	}, points...)
	return text("Write a "+area+" assessment of the vendor.", 200, 350, guidelines...)
}

// incidentPhase is shared by the incident response phase narratives.
func incidentPhase(phase string, points ...string) Recipe {
	guidelines := append([]string{
		"Write in past tense for actions taken and future tense for planned actions.",
		"Reference affected systems by the names given above only.",
	}, points...)
	return text("Document the "+phase+" phase of the incident.", 150, 300, guidelines...)
}

// policySection is shared by the policy document sections.
func policySection(section string, minWords, maxWords int, points ...string) Recipe {
	guidelines := append([]string{
		"Use \"must\" for mandatory requirements and \"should\" for recommendations.",
	}, points...)
	return text("Write the "+section+" section of the policy.", minWords, maxWords, guidelines...)
}

var library = map[fields.FieldType]Recipe{
	// Audit
	fields.Description: text("Write a concise description of the audit engagement.", 100, 200,
		"Explain what is being audited and why it matters to the organization.",
		"Mention the key processes or areas covered."),
	fields.Objectives: {
		Task:  "Write the audit objectives.",
		Items: 5,
		Guidelines: []string{
			"Each objective must be specific, measurable and start with an action verb (Assess, Evaluate, Verify, Determine).",
			"Objectives must be distinct from each other and reflect the audit type.",
		},
		Guidance: objectivesGuidance,
	},
	fields.Scope: text("Write the audit scope statement.", 120, 220,
		"State the processes, locations, systems and time period included.",
		"Explicitly state notable exclusions."),
	fields.Methodology: text("Describe the audit methodology.", 150, 250,
		"Cover planning, walkthroughs, control testing, data analytics and reporting.",
		"Reference the professional standards followed (e.g., IIA Standards)."),
	fields.Criteria: text("Define the audit criteria against which the subject will be evaluated.", 100, 200,
		"Cite relevant policies, regulations, frameworks or contractual requirements.",
		"Present criteria as a short bulleted list followed by one sentence on how they are applied."),
	fields.RiskAssessment: text("Write the audit planning risk assessment.", 150, 250,
		"Identify the key inherent risks for the area and rate each as high, medium or low with a short rationale.",
		"Explain how the risk assessment drives audit focus."),
	fields.Findings: text("Summarize the audit findings.", 150, 300,
		"Use the condition, criteria, cause, effect structure for each finding.",
		"Order findings by severity."),
	fields.Recommendations: text("Write audit recommendations.", 120, 250,
		"Each recommendation must be actionable, address root cause and be proportionate to the risk.",
		"Present recommendations as a numbered list."),
	fields.Conclusion: text("Write the overall audit conclusion.", 80, 150,
		"State an overall opinion (e.g., satisfactory, needs improvement, unsatisfactory) with a brief justification."),
	fields.ExecutiveSummary: text("Write an executive summary of the audit for senior management.", 150, 250,
		"Cover background, overall conclusion, key findings and management actions.",
		"Avoid technical jargon."),
	fields.AuditProgram: text("Draft the audit program steps.", 200, 350,
		"Present a numbered list of test steps, each linked to a control or risk and stating the evidence to obtain."),
	fields.SamplingApproach: text("Describe the sampling approach for audit testing.", 100, 200,
		"State population, sampling method (statistical or judgmental), sample sizes and selection rationale."),

	// Risk
	fields.RiskDescription: text("Write a risk description.", 80, 150,
		"Use the format: there is a risk that <event> caused by <cause>, resulting in <consequence>."),
	fields.RiskCause: text("Describe the root causes and contributing factors of the risk.", 100, 200,
		"Distinguish internal from external causes."),
	fields.RiskImpact: text("Describe the potential impact of the risk.", 100, 200,
		"Cover financial, operational, regulatory, reputational and customer impacts where relevant."),
	fields.RiskLikelihoodRationale: text("Explain the rationale for the likelihood rating.", 80, 150,
		"Reference historical events, control environment and external trends."),
	fields.RiskMitigation: text("Describe mitigation measures for the risk.", 150, 250,
		"Separate preventive and detective measures and name an owner role for each."),
	fields.RiskTreatmentPlan: text("Write a risk treatment plan.", 150, 300,
		"State the treatment option (avoid, reduce, transfer, accept) and justify it.",
		"List actions with owner roles and target timeframes."),
	fields.RiskAppetiteStatement: text("Write a risk appetite statement for this risk area.", 80, 150,
		"Express appetite qualitatively and with at least one measurable tolerance threshold."),
	fields.KeyRiskIndicators: list("Propose key risk indicators for monitoring this risk.", 5,
		"Each indicator must state what is measured and a suggested threshold."),
	fields.ResidualRiskRationale: text("Explain the residual risk rating after controls.", 80, 150,
		"Relate the rating to the effectiveness of existing controls."),
	fields.RiskOwnerResponsibilities: text("Describe the responsibilities of the risk owner.", 100, 180,
		"Cover monitoring, reporting, escalation and treatment oversight."),

	// Policy
	fields.PolicyContent: policySection("full body", 300, 600,
		"Organize into purpose, scope, policy statements, roles and responsibilities, compliance and review.",
		"Use numbered sections."),
	fields.PolicyPurpose:   policySection("purpose", 60, 120, "Explain why the policy exists and the risks it addresses."),
	fields.PolicyScope:     policySection("scope", 60, 150, "State who and what the policy applies to and any exclusions."),
	fields.PolicyStatement: policySection("policy statements", 150, 300, "Present clear, numbered policy requirements."),
	fields.PolicyRolesResponsibilities: policySection("roles and responsibilities", 120, 250,
		"List each role and its responsibilities."),
	fields.PolicyCompliance: policySection("compliance and enforcement", 80, 180,
		"Describe how compliance is monitored and the consequences of non-compliance."),
	fields.PolicyExceptions: policySection("exceptions", 60, 150,
		"Describe how exceptions are requested, approved, documented and reviewed."),
	fields.PolicyReviewProcedure: policySection("review and maintenance", 60, 150,
		"State the review frequency, the owner and triggers for an out-of-cycle review."),

	// Controls
	fields.ControlDescription: text("Write the control description.", 80, 150,
		"State who performs the control, what is done, when, and how evidence is retained."),
	fields.ControlObjective: text("Write the control objective.", 40, 80,
		"State the risk the control addresses and the desired outcome in one or two sentences."),
	fields.ControlTestProcedure: text("Write the test procedure for the control.", 150, 250,
		"Cover test of design and test of operating effectiveness with numbered steps."),
	fields.ControlEvidenceRequirements: text("List the evidence required to demonstrate the control operates.", 80, 150,
		"Present as a bulleted list with the expected source of each item."),
	fields.ControlDeficiency: text("Describe the control deficiency.", 100, 200,
		"Classify it as a design or operating deficiency and explain the exposure created."),
	fields.ControlRemediation: text("Write the remediation plan for the control deficiency.", 100, 200,
		"List remediation steps with owner roles and target dates relative to today."),

	// Findings
	fields.FindingDescription: text("Write the audit finding.", 150, 250,
		"Use the condition, criteria, cause, effect structure with labelled paragraphs."),
	fields.FindingRootCause: text("Analyze the root cause of the finding.", 100, 200,
		"Go beyond symptoms; consider people, process and technology causes."),
	fields.FindingImpact: text("Describe the impact of the finding.", 80, 160,
		"Quantify impact where the information above allows it."),
	fields.ManagementResponse: text("Draft a management response to the finding.", 100, 200,
		"Acknowledge the finding, describe corrective actions, name the responsible role and a target date."),

	// Business continuity
	fields.BCPPlanOverview: text("Write the business continuity plan overview.", 150, 250,
		"Cover purpose, scope, activation criteria and plan structure."),
	fields.BusinessImpactAnalysis: text("Write the business impact analysis summary.", 200, 350,
		"Describe impacts over time (1 hour, 1 day, 1 week) across financial, operational, regulatory and reputational dimensions."),
	fields.RecoveryStrategy: text("Describe the recovery strategy.", 150, 300,
		"Cover people, premises, technology, data and suppliers."),
	fields.RecoveryTimeObjective: text("Justify the recovery time objective.", 60, 120,
		"Link the objective to the maximum tolerable period of disruption."),
	fields.RecoveryPointObjective: text("Justify the recovery point objective.", 60, 120,
		"Link the objective to data criticality and backup capability."),
	fields.CriticalFunctions: text("Identify and describe the critical business functions.", 120, 250,
		"Present as a list with a one-sentence justification for each."),
	fields.CrisisCommunicationPlan: text("Write the crisis communication plan.", 200, 350,
		"Cover stakeholders, spokespersons, channels, message approval and timing."),
	fields.BCPTestingPlan: text("Write the continuity testing plan.", 150, 250,
		"Describe test types (tabletop, walkthrough, full failover), frequency and success criteria."),
	fields.EmergencyResponseProcedure: text("Write the emergency response procedure.", 150, 300,
		"Use numbered, imperative steps in the order they must be performed."),
	fields.PlanMaintenance: text("Describe how the plan is maintained.", 80, 150,
		"Cover review frequency, change triggers, version control and ownership."),

	// Vendors
	fields.VendorOverview: text("Write a vendor overview.", 100, 200,
		"Describe the vendor, the services provided and why the relationship matters."),
	fields.VendorRiskAssessment: vendorAssessment("overall risk",
		"Cover inherent risk from the service, data access and criticality."),
	fields.VendorSecurityAssessment: vendorAssessment("information security",
		"Cover certifications (e.g., SOC 2, ISO 27001), access controls, encryption and incident handling."),
	fields.VendorFinancialAssessment: vendorAssessment("financial stability",
		"Cover financial health indicators, concentration and going-concern signals."),
	fields.VendorComplianceAssessment: vendorAssessment("regulatory compliance",
		"Cover applicable regulations, data protection and the vendor's compliance program."),
	fields.VendorOperationalAssessment: vendorAssessment("operational",
		"Cover service delivery, capacity, continuity arrangements and sub-contractor dependencies."),
	fields.VendorDueDiligence: text("Write the vendor due diligence summary.", 150, 300,
		"Cover the checks performed, results and any open items."),
	fields.VendorContractRequirements: text("List the key contractual requirements for the vendor.", 150, 250,
		"Include audit rights, data protection, security, termination and liability clauses."),
	fields.VendorSLARequirements: text("Define service level requirements for the vendor.", 100, 200,
		"State measurable targets, measurement method and service credits."),
	fields.VendorExitStrategy: text("Write the vendor exit strategy.", 150, 250,
		"Cover triggers, transition plan, data return or destruction and alternative suppliers."),

	// Incidents
	fields.IncidentDescription: text("Write the incident description.", 100, 200,
		"State what happened, when it was detected, how and what was affected, factually."),
	fields.IncidentImpactAssessment: text("Assess the impact of the incident.", 120, 220,
		"Cover operational, financial, data, customer and regulatory impact."),
	fields.IncidentRootCause: text("Write the root cause analysis of the incident.", 120, 250,
		"Distinguish the trigger, the root cause and contributing factors."),
	fields.IncidentContainment:  incidentPhase("containment", "Describe short-term and long-term containment actions."),
	fields.IncidentEradication:  incidentPhase("eradication", "Describe how the cause was removed and how this was verified."),
	fields.IncidentRecovery:     incidentPhase("recovery", "Describe restoration steps, validation and monitoring after recovery."),
	fields.IncidentLessonsLearned: text("Write the lessons learned from the incident.", 120, 220,
		"Cover what worked, what did not, and concrete improvement actions."),
	fields.IncidentNotification: text("Draft the incident notification for affected stakeholders.", 100, 200,
		"State facts known so far, actions taken, recommended actions for recipients and a contact point.",
		"Do not speculate about the cause."),

	// Training
	fields.TrainingDescription: text("Write the training course description.", 80, 150,
		"Explain what learners will gain and why the topic matters."),
	fields.TrainingObjectives: list("Write the learning objectives for the training.", 5,
		"Each objective must start with a measurable verb (Identify, Explain, Apply, Demonstrate)."),
	fields.TrainingOutline: text("Write the training outline.", 150, 250,
		"Present numbered modules, each with a short description and estimated duration."),
	fields.TrainingAssessmentQuestions: list("Write assessment questions for the training.", 5,
		"Each question must test practical understanding, not recall of definitions."),
	fields.TrainingAudience: text("Describe the target audience of the training.", 60, 120,
		"State roles, prerequisites and why each group needs the training."),
	fields.TrainingCompletionCriteria: text("Define the completion criteria for the training.", 60, 120,
		"Include the pass mark, attendance requirements and refresher frequency."),

	// Security
	fields.ThreatAssessment: text("Write the threat assessment.", 150, 300,
		"Identify threat actors, attack vectors, likelihood and potential impact."),
	fields.VulnerabilityDescription: text("Describe the vulnerability.", 100, 200,
		"Explain the weakness, how it could be exploited and the affected asset, without exploit code."),
	fields.SecurityControlRecommendation: text("Recommend security controls.", 120, 250,
		"Prioritize recommendations and map each to a recognized control framework where possible."),
	fields.AccessControlProcedure: text("Write the access control procedure.", 150, 300,
		"Cover request, approval, provisioning, review and revocation steps."),
	fields.SecurityAwarenessMessage: text("Write a security awareness message for employees.", 80, 150,
		"Use plain language and end with one clear action employees should take."),
	fields.DataClassificationGuidance: text("Write data classification guidance.", 120, 220,
		"Describe each classification level, examples and required handling."),

	// Operational resilience
	fields.ResilienceAssessment: text("Write the operational resilience assessment.", 200, 350,
		"Assess the ability to remain within impact tolerance under severe but plausible scenarios."),
	fields.DependencyMapping: text("Describe the dependency mapping for the service.", 150, 250,
		"Cover people, processes, technology, facilities, information and third parties."),
	fields.ScenarioAnalysis: text("Write a severe but plausible scenario analysis.", 200, 350,
		"Describe the scenario, the expected impact over time and whether tolerance would be breached."),
	fields.ImpactTolerance: text("Define and justify the impact tolerance.", 80, 150,
		"Express the tolerance as a maximum duration or volume of disruption and justify it."),
	fields.ResilienceImprovementPlan: text("Write the resilience improvement plan.", 150, 300,
		"List prioritized actions with owner roles and target timeframes."),

	// Supply chain
	fields.SupplyChainRiskDescription: text("Describe the supply chain risk.", 100, 200,
		"Explain the disruption source, exposure and consequences."),
	fields.SupplierConcentrationAnalysis: text("Analyze supplier concentration.", 150, 250,
		"Cover single-source dependencies, geographic concentration and substitutability."),
	fields.SupplyChainMitigation: text("Describe supply chain risk mitigation measures.", 150, 250,
		"Cover dual sourcing, inventory buffers, contractual protections and monitoring."),
	fields.SupplierContinuityRequirements: text("Define continuity requirements for the supplier.", 120, 220,
		"Include plan testing, notification duties and recovery commitments."),
	fields.SupplyChainMapping: text("Describe the supply chain map.", 150, 250,
		"Describe tiers, critical nodes, flows and known visibility gaps."),
}

// RecipeFor returns the library recipe for ft.
func RecipeFor(ft fields.FieldType) (Recipe, bool) {
	r, ok := library[ft]
	return r, ok
}

// fallbackRecipe is used for field types missing from the library.
func fallbackRecipe(ft fields.FieldType) Recipe {
	label := strings.ReplaceAll(string(ft), "_", " ")
	if label == "" {
		label = "content"
	}
	return text("Write the "+label+".", 100, 250, "Be specific to the information above.")
}

package fields

import "sort"

// FieldType identifies which piece of business content is being generated.
type FieldType string

// Category groups related field types. Prompt recipes and entity blocks are
// shared within a category.
type Category string

// Categories.
const (
	CategoryAudit       Category = "audit"
	CategoryRisk        Category = "risk"
	CategoryPolicy      Category = "policy"
	CategoryControl     Category = "control"
	CategoryFinding     Category = "finding"
	CategoryBCP         Category = "bcp"
	CategoryVendor      Category = "vendor"
	CategoryIncident    Category = "incident"
	CategoryTraining    Category = "training"
	CategorySecurity    Category = "security"
	CategoryResilience  Category = "resilience"
	CategorySupplyChain Category = "supply_chain"
)

// Audit content.
const (
	Description      FieldType = "description"
	Objectives       FieldType = "objectives"
	Scope            FieldType = "scope"
	Methodology      FieldType = "methodology"
	Criteria         FieldType = "criteria"
	RiskAssessment   FieldType = "risk_assessment"
	Findings         FieldType = "findings"
	Recommendations  FieldType = "recommendations"
	Conclusion       FieldType = "conclusion"
	ExecutiveSummary FieldType = "executive_summary"
	AuditProgram     FieldType = "audit_program"
	SamplingApproach FieldType = "sampling_approach"
)

// Risk content.
const (
	RiskDescription           FieldType = "risk_description"
	RiskCause                 FieldType = "risk_cause"
	RiskImpact                FieldType = "risk_impact"
	RiskLikelihoodRationale   FieldType = "risk_likelihood_rationale"
	RiskMitigation            FieldType = "risk_mitigation"
	RiskTreatmentPlan         FieldType = "risk_treatment_plan"
	RiskAppetiteStatement     FieldType = "risk_appetite_statement"
	KeyRiskIndicators         FieldType = "key_risk_indicators"
	ResidualRiskRationale     FieldType = "residual_risk_rationale"
	RiskOwnerResponsibilities FieldType = "risk_owner_responsibilities"
)

// Policy content.
const (
	PolicyContent               FieldType = "policy_content"
	PolicyPurpose               FieldType = "policy_purpose"
	PolicyScope                 FieldType = "policy_scope"
	PolicyStatement             FieldType = "policy_statement"
	PolicyRolesResponsibilities FieldType = "policy_roles_responsibilities"
	PolicyCompliance            FieldType = "policy_compliance"
	PolicyExceptions            FieldType = "policy_exceptions"
	PolicyReviewProcedure       FieldType = "policy_review_procedure"
)

// Control content.
const (
	ControlDescription          FieldType = "control_description"
	ControlObjective            FieldType = "control_objective"
	ControlTestProcedure        FieldType = "control_test_procedure"
	ControlEvidenceRequirements FieldType = "control_evidence_requirements"
	ControlDeficiency           FieldType = "control_deficiency"
	ControlRemediation          FieldType = "control_remediation"
)

// Finding content.
const (
	FindingDescription FieldType = "finding_description"
	FindingRootCause   FieldType = "finding_root_cause"
	FindingImpact      FieldType = "finding_impact"
	ManagementResponse FieldType = "management_response"
)

// Business continuity content.
const (
	BCPPlanOverview            FieldType = "bcp_plan_overview"
	BusinessImpactAnalysis     FieldType = "business_impact_analysis"
	RecoveryStrategy           FieldType = "recovery_strategy"
	RecoveryTimeObjective      FieldType = "recovery_time_objective"
	RecoveryPointObjective     FieldType = "recovery_point_objective"
	CriticalFunctions          FieldType = "critical_functions"
	CrisisCommunicationPlan    FieldType = "crisis_communication_plan"
	BCPTestingPlan             FieldType = "bcp_testing_plan"
	EmergencyResponseProcedure FieldType = "emergency_response_procedure"
	PlanMaintenance            FieldType = "plan_maintenance"
)

// Vendor content.
const (
	VendorOverview              FieldType = "vendor_overview"
	VendorRiskAssessment        FieldType = "vendor_risk_assessment"
	VendorSecurityAssessment    FieldType = "vendor_security_assessment"
	VendorFinancialAssessment   FieldType = "vendor_financial_assessment"
	VendorComplianceAssessment  FieldType = "vendor_compliance_assessment"
	VendorOperationalAssessment FieldType = "vendor_operational_assessment"
	VendorDueDiligence          FieldType = "vendor_due_diligence"
	VendorContractRequirements  FieldType = "vendor_contract_requirements"
	VendorSLARequirements       FieldType = "vendor_sla_requirements"
	VendorExitStrategy          FieldType = "vendor_exit_strategy"
)

// Incident content.
const (
	IncidentDescription      FieldType = "incident_description"
	IncidentImpactAssessment FieldType = "incident_impact_assessment"
	IncidentRootCause        FieldType = "incident_root_cause"
	IncidentContainment      FieldType = "incident_containment"
	IncidentEradication      FieldType = "incident_eradication"
	IncidentRecovery         FieldType = "incident_recovery"
	IncidentLessonsLearned   FieldType = "incident_lessons_learned"
	IncidentNotification     FieldType = "incident_notification"
)

// Training content.
const (
	TrainingDescription         FieldType = "training_description"
	TrainingObjectives          FieldType = "training_objectives"
	TrainingOutline             FieldType = "training_outline"
	TrainingAssessmentQuestions FieldType = "training_assessment_questions"
	TrainingAudience            FieldType = "training_audience"
	TrainingCompletionCriteria  FieldType = "training_completion_criteria"
)

// Security content.
const (
	ThreatAssessment              FieldType = "threat_assessment"
	VulnerabilityDescription      FieldType = "vulnerability_description"
	SecurityControlRecommendation FieldType = "security_control_recommendation"
	AccessControlProcedure        FieldType = "access_control_procedure"
	SecurityAwarenessMessage      FieldType = "security_awareness_message"
	DataClassificationGuidance    FieldType = "data_classification_guidance"
)

// Operational resilience content.
const (
	ResilienceAssessment      FieldType = "resilience_assessment"
	DependencyMapping         FieldType = "dependency_mapping"
	ScenarioAnalysis          FieldType = "scenario_analysis"
	ImpactTolerance           FieldType = "impact_tolerance"
	ResilienceImprovementPlan FieldType = "resilience_improvement_plan"
)

// Supply chain content.
const (
	SupplyChainRiskDescription     FieldType = "supply_chain_risk_description"
	SupplierConcentrationAnalysis  FieldType = "supplier_concentration_analysis"
	SupplyChainMitigation          FieldType = "supply_chain_mitigation"
	SupplierContinuityRequirements FieldType = "supplier_continuity_requirements"
	SupplyChainMapping             FieldType = "supply_chain_mapping"
)

var categories = map[FieldType]Category{
	Description:      CategoryAudit,
	Objectives:       CategoryAudit,
	Scope:            CategoryAudit,
	Methodology:      CategoryAudit,
	Criteria:         CategoryAudit,
	RiskAssessment:   CategoryAudit,
	Findings:         CategoryAudit,
	Recommendations:  CategoryAudit,
	Conclusion:       CategoryAudit,
	ExecutiveSummary: CategoryAudit,
	AuditProgram:     CategoryAudit,
	SamplingApproach: CategoryAudit,

	RiskDescription:           CategoryRisk,
	RiskCause:                 CategoryRisk,
	RiskImpact:                CategoryRisk,
	RiskLikelihoodRationale:   CategoryRisk,
	RiskMitigation:            CategoryRisk,
	RiskTreatmentPlan:         CategoryRisk,
	RiskAppetiteStatement:     CategoryRisk,
	KeyRiskIndicators:         CategoryRisk,
	ResidualRiskRationale:     CategoryRisk,
	RiskOwnerResponsibilities: CategoryRisk,

	PolicyContent:               CategoryPolicy,
	PolicyPurpose:               CategoryPolicy,
	PolicyScope:                 CategoryPolicy,
	PolicyStatement:             CategoryPolicy,
	PolicyRolesResponsibilities: CategoryPolicy,
	PolicyCompliance:            CategoryPolicy,
	PolicyExceptions:            CategoryPolicy,
	PolicyReviewProcedure:       CategoryPolicy,

	ControlDescription:          CategoryControl,
	ControlObjective:            CategoryControl,
	ControlTestProcedure:        CategoryControl,
	ControlEvidenceRequirements: CategoryControl,
	ControlDeficiency:           CategoryControl,
	ControlRemediation:          CategoryControl,

	FindingDescription: CategoryFinding,
	FindingRootCause:   CategoryFinding,
	FindingImpact:      CategoryFinding,
	ManagementResponse: CategoryFinding,

	BCPPlanOverview:            CategoryBCP,
	BusinessImpactAnalysis:     CategoryBCP,
	RecoveryStrategy:           CategoryBCP,
	RecoveryTimeObjective:      CategoryBCP,
	RecoveryPointObjective:     CategoryBCP,
	CriticalFunctions:          CategoryBCP,
	CrisisCommunicationPlan:    CategoryBCP,
	BCPTestingPlan:             CategoryBCP,
	EmergencyResponseProcedure: CategoryBCP,
	PlanMaintenance:            CategoryBCP,

	VendorOverview:              CategoryVendor,
	VendorRiskAssessment:        CategoryVendor,
	VendorSecurityAssessment:    CategoryVendor,
	VendorFinancialAssessment:   CategoryVendor,
	VendorComplianceAssessment:  CategoryVendor,
	VendorOperationalAssessment: CategoryVendor,
	VendorDueDiligence:          CategoryVendor,
	VendorContractRequirements:  CategoryVendor,
	VendorSLARequirements:       CategoryVendor,
	VendorExitStrategy:          CategoryVendor,

	IncidentDescription:      CategoryIncident,
	IncidentImpactAssessment: CategoryIncident,
	IncidentRootCause:        CategoryIncident,
	IncidentContainment:      CategoryIncident,
	IncidentEradication:      CategoryIncident,
	IncidentRecovery:         CategoryIncident,
	IncidentLessonsLearned:   CategoryIncident,
	IncidentNotification:     CategoryIncident,

	TrainingDescription:         CategoryTraining,
	TrainingObjectives:          CategoryTraining,
	TrainingOutline:             CategoryTraining,
	TrainingAssessmentQuestions: CategoryTraining,
	TrainingAudience:            CategoryTraining,
	TrainingCompletionCriteria:  CategoryTraining,

	ThreatAssessment:              CategorySecurity,
	VulnerabilityDescription:      CategorySecurity,
	SecurityControlRecommendation: CategorySecurity,
	AccessControlProcedure:        CategorySecurity,
	SecurityAwarenessMessage:      CategorySecurity,
	DataClassificationGuidance:    CategorySecurity,

	ResilienceAssessment:      CategoryResilience,
	DependencyMapping:         CategoryResilience,
	ScenarioAnalysis:          CategoryResilience,
	ImpactTolerance:           CategoryResilience,
	ResilienceImprovementPlan: CategoryResilience,

	SupplyChainRiskDescription:     CategorySupplyChain,
	SupplierConcentrationAnalysis:  CategorySupplyChain,
	SupplyChainMitigation:          CategorySupplyChain,
	SupplierContinuityRequirements: CategorySupplyChain,
	SupplyChainMapping:             CategorySupplyChain,
}

// listShaped holds the field types whose answer is a list of strings.
var listShaped = map[FieldType]bool{
	Objectives:                  true,
	KeyRiskIndicators:           true,
	TrainingObjectives:          true,
	TrainingAssessmentQuestions: true,
}

// All returns every known field type in lexical order.
func All() []FieldType {
	out := make([]FieldType, 0, len(categories))
	for ft := range categories {
		out = append(out, ft)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Valid reports whether ft is a known field type.
func (ft FieldType) Valid() bool {
	_, ok := categories[ft]
	return ok
}

// Category returns the category of ft, or "" when ft is unknown.
func (ft FieldType) Category() Category {
	return categories[ft]
}

// IsList reports whether ft denotes a list-shaped answer.
func (ft FieldType) IsList() bool {
	return listShaped[ft]
}

// String implements fmt.Stringer.
func (ft FieldType) String() string {
	return string(ft)
}

// InCategory returns the field types of a category in lexical order.
func InCategory(c Category) []FieldType {
	var out []FieldType
	for ft, cat := range categories {
		if cat == c {
			out = append(out, ft)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

package vocab

// Builtin vocabularies for the four shipped profiles. Level assignments are
// cumulative: a level-2 extraction run sees every level-1 and level-2 entry.

// BuiltinRegistry returns a registry with the general, vc, pharma, and
// insurance profiles. General is the fallback.
func BuiltinRegistry() *Registry {
	return NewRegistry(
		GeneralProfile(),
		VCProfile(),
		PharmaProfile(),
		InsuranceProfile(),
	)
}

// GeneralProfile is the profile used when no industry vertical applies.
func GeneralProfile() *Profile {
	return &Profile{
		Code: "general",
		Name: "General",
		Metrics: []MetricDefinition{
			{Name: "revenue", DisplayName: "Revenue", Description: "Total revenue for a period", UnitType: UnitMoney, Aliases: []string{"total_revenue", "sales"}, RequiredLevel: 1, Critical: true, PeriodSensitive: true},
			{Name: "headcount", DisplayName: "Headcount", Description: "Number of employees", UnitType: UnitCount, Aliases: []string{"employees", "fte"}, RequiredLevel: 1},
			{Name: "cash", DisplayName: "Cash", Description: "Cash and cash equivalents on hand", UnitType: UnitMoney, Aliases: []string{"cash_balance", "cash_on_hand"}, RequiredLevel: 1, Critical: true},
			{Name: "net_income", DisplayName: "Net Income", Description: "Profit after all expenses", UnitType: UnitMoney, Aliases: []string{"profit", "net_profit"}, RequiredLevel: 2, Critical: true, PeriodSensitive: true},
			{Name: "operating_expenses", DisplayName: "Operating Expenses", Description: "Total operating expenses for a period", UnitType: UnitMoney, Aliases: []string{"opex"}, RequiredLevel: 2, PeriodSensitive: true},
			{Name: "assets", DisplayName: "Total Assets", Description: "Total assets on the balance sheet", UnitType: UnitMoney, RequiredLevel: 3},
		},
		Predicates: []ClaimPredicate{
			{Name: "is_profitable", DisplayName: "Is Profitable", Description: "The entity operates at a profit", ValueKind: ValueBool, RequiredLevel: 1},
			{Name: "has_audit", DisplayName: "Has Audited Financials", Description: "Financial statements are externally audited", ValueKind: ValueBool, Aliases: []string{"audited"}, RequiredLevel: 2},
			{Name: "is_gdpr_compliant", DisplayName: "GDPR Compliant", Description: "The entity asserts GDPR compliance", ValueKind: ValueBool, Aliases: []string{"gdpr_compliant"}, RequiredLevel: 2},
		},
		Risks: []RiskCategory{
			{Name: "going_concern", DisplayName: "Going Concern", Description: "Doubt about the entity's ability to continue operating", Indicators: []string{"auditor going-concern note", "negative equity"}, RequiredLevel: 2},
		},
	}
}

// VCProfile is the venture-capital due-diligence vocabulary.
func VCProfile() *Profile {
	return &Profile{
		Code: "vc",
		Name: "Venture Capital",
		Metrics: []MetricDefinition{
			// Level 1: the headline financial-health set.
			{Name: "arr", DisplayName: "ARR", Description: "Annual recurring revenue", UnitType: UnitMoney, Aliases: []string{"annual_recurring_revenue"}, RequiredLevel: 1, Critical: true, PeriodSensitive: true},
			{Name: "mrr", DisplayName: "MRR", Description: "Monthly recurring revenue", UnitType: UnitMoney, Aliases: []string{"monthly_recurring_revenue"}, RequiredLevel: 1, Critical: true, PeriodSensitive: true},
			{Name: "revenue", DisplayName: "Revenue", Description: "Total revenue for a period", UnitType: UnitMoney, Aliases: []string{"total_revenue"}, RequiredLevel: 1, Critical: true, PeriodSensitive: true},
			{Name: "burn", DisplayName: "Burn", Description: "Net monthly cash burn", UnitType: UnitMoney, Aliases: []string{"burn_rate", "net_burn"}, RequiredLevel: 1, Critical: true, PeriodSensitive: true},
			{Name: "runway", DisplayName: "Runway", Description: "Months of cash remaining at current burn", UnitType: UnitDuration, Aliases: []string{"cash_runway"}, RequiredLevel: 1, Critical: true},
			{Name: "cash", DisplayName: "Cash", Description: "Cash and cash equivalents on hand", UnitType: UnitMoney, Aliases: []string{"cash_balance"}, RequiredLevel: 1, Critical: true},
			{Name: "headcount", DisplayName: "Headcount", Description: "Number of employees", UnitType: UnitCount, Aliases: []string{"employees", "fte"}, RequiredLevel: 1},
			// Level 2: retention and margin.
			{Name: "nrr", DisplayName: "NRR", Description: "Net revenue retention", UnitType: UnitPercent, Aliases: []string{"net_revenue_retention", "ndr"}, RequiredLevel: 2, Critical: true, PeriodSensitive: true},
			{Name: "churn", DisplayName: "Churn", Description: "Customer or revenue churn rate", UnitType: UnitPercent, Aliases: []string{"churn_rate"}, RequiredLevel: 2, PeriodSensitive: true},
			{Name: "gross_margin", DisplayName: "Gross Margin", Description: "Gross profit as a share of revenue", UnitType: UnitPercent, RequiredLevel: 2, PeriodSensitive: true},
			{Name: "growth_rate", DisplayName: "Growth Rate", Description: "Revenue growth rate for a period", UnitType: UnitPercent, Aliases: []string{"yoy_growth"}, RequiredLevel: 2, PeriodSensitive: true},
			// Level 3: unit economics.
			{Name: "cac", DisplayName: "CAC", Description: "Customer acquisition cost", UnitType: UnitMoney, Aliases: []string{"customer_acquisition_cost"}, RequiredLevel: 3, PeriodSensitive: true},
			{Name: "ltv", DisplayName: "LTV", Description: "Customer lifetime value", UnitType: UnitMoney, Aliases: []string{"lifetime_value"}, RequiredLevel: 3},
			// Level 4: composite efficiency metrics.
			{Name: "burn_multiple", DisplayName: "Burn Multiple", Description: "Net burn divided by net new ARR", UnitType: UnitRatio, RequiredLevel: 4, PeriodSensitive: true},
			{Name: "rule_of_40", DisplayName: "Rule of 40", Description: "Growth rate plus profit margin", UnitType: UnitPercent, RequiredLevel: 4, PeriodSensitive: true},
		},
		Predicates: []ClaimPredicate{
			{Name: "has_soc2", DisplayName: "Has SOC 2", Description: "Holds a SOC 2 attestation", ValueKind: ValueBool, Aliases: []string{"soc2", "soc2_certified"}, RequiredLevel: 1},
			{Name: "is_iso27001", DisplayName: "ISO 27001 Certified", Description: "Holds ISO 27001 certification", ValueKind: ValueBool, Aliases: []string{"iso27001"}, RequiredLevel: 1},
			{Name: "is_gdpr_compliant", DisplayName: "GDPR Compliant", Description: "Asserts GDPR compliance", ValueKind: ValueBool, Aliases: []string{"gdpr_compliant"}, RequiredLevel: 1},
			{Name: "owns_ip", DisplayName: "Owns IP", Description: "Owns its core intellectual property outright", ValueKind: ValueBool, RequiredLevel: 2},
			{Name: "raised_funding", DisplayName: "Raised Funding", Description: "Has closed an external funding round", ValueKind: ValueBool, RequiredLevel: 2},
			{Name: "has_security_incident", DisplayName: "Had Security Incident", Description: "Disclosed a material security incident", ValueKind: ValueBool, RequiredLevel: 2},
			{Name: "funding_stage", DisplayName: "Funding Stage", Description: "Latest funding stage reached", ValueKind: ValueEnum, AllowedValues: []string{"pre_seed", "seed", "series_a", "series_b", "series_c", "growth"}, RequiredLevel: 3},
		},
		Risks: []RiskCategory{
			{Name: "runway_risk", DisplayName: "Runway Risk", Description: "Less than 12 months of runway at current burn", Indicators: []string{"runway below 12 months", "rising burn"}, RequiredLevel: 2},
			{Name: "customer_concentration", DisplayName: "Customer Concentration", Description: "Revenue concentrated in few customers", Indicators: []string{"top customer above 20% of revenue"}, RequiredLevel: 2},
			{Name: "key_person_risk", DisplayName: "Key Person Risk", Description: "Critical dependence on one person", Indicators: []string{"single technical founder", "no succession plan"}, RequiredLevel: 2},
		},
	}
}

// PharmaProfile is the pharmaceutical / life-sciences vocabulary.
func PharmaProfile() *Profile {
	return &Profile{
		Code: "pharma",
		Name: "Pharmaceutical/Life Sciences",
		Metrics: []MetricDefinition{
			{Name: "revenue", DisplayName: "Revenue", Description: "Total revenue for a period", UnitType: UnitMoney, RequiredLevel: 1, Critical: true, PeriodSensitive: true},
			{Name: "cash", DisplayName: "Cash", Description: "Cash and cash equivalents on hand", UnitType: UnitMoney, RequiredLevel: 1, Critical: true},
			{Name: "burn", DisplayName: "Burn", Description: "Net monthly cash burn", UnitType: UnitMoney, Aliases: []string{"burn_rate"}, RequiredLevel: 1, Critical: true, PeriodSensitive: true},
			{Name: "rd_spend", DisplayName: "R&D Spend", Description: "Research and development expenditure", UnitType: UnitMoney, Aliases: []string{"r_and_d", "research_spend"}, RequiredLevel: 1, Critical: true, PeriodSensitive: true},
			{Name: "pipeline_count", DisplayName: "Pipeline Count", Description: "Number of active pipeline programs", UnitType: UnitCount, RequiredLevel: 2},
			{Name: "clinical_trial_count", DisplayName: "Clinical Trials", Description: "Number of active clinical trials", UnitType: UnitCount, Aliases: []string{"active_trials"}, RequiredLevel: 2},
			{Name: "phase1_count", DisplayName: "Phase 1 Programs", Description: "Programs in phase 1 trials", UnitType: UnitCount, RequiredLevel: 3},
			{Name: "phase2_count", DisplayName: "Phase 2 Programs", Description: "Programs in phase 2 trials", UnitType: UnitCount, RequiredLevel: 3},
			{Name: "phase3_count", DisplayName: "Phase 3 Programs", Description: "Programs in phase 3 trials", UnitType: UnitCount, RequiredLevel: 3},
		},
		Predicates: []ClaimPredicate{
			{Name: "has_fda_approval", DisplayName: "FDA Approved", Description: "Holds an FDA approval for a lead asset", ValueKind: ValueBool, Aliases: []string{"fda_approved"}, RequiredLevel: 1},
			{Name: "has_gmp_certification", DisplayName: "GMP Certified", Description: "Manufacturing is GMP certified", ValueKind: ValueBool, Aliases: []string{"gmp_certified"}, RequiredLevel: 2},
			{Name: "trial_phase", DisplayName: "Lead Asset Trial Phase", Description: "Phase of the lead asset's active trial", ValueKind: ValueEnum, AllowedValues: []string{"preclinical", "phase1", "phase2", "phase3", "approved"}, RequiredLevel: 2},
		},
		Risks: []RiskCategory{
			{Name: "regulatory_risk", DisplayName: "Regulatory Risk", Description: "Approval pathway uncertainty", Indicators: []string{"pending FDA response", "clinical hold"}, RequiredLevel: 2},
			{Name: "trial_failure", DisplayName: "Trial Failure Risk", Description: "Lead asset trial may miss endpoints", Indicators: []string{"underpowered trial", "surrogate endpoints"}, RequiredLevel: 2},
		},
	}
}

// InsuranceProfile is the insurance underwriting vocabulary.
func InsuranceProfile() *Profile {
	return &Profile{
		Code: "insurance",
		Name: "Insurance",
		Metrics: []MetricDefinition{
			{Name: "revenue", DisplayName: "Revenue", Description: "Total revenue for a period", UnitType: UnitMoney, Aliases: []string{"premium_revenue"}, RequiredLevel: 1, Critical: true, PeriodSensitive: true},
			{Name: "net_income", DisplayName: "Net Income", Description: "Profit after all expenses", UnitType: UnitMoney, RequiredLevel: 1, Critical: true, PeriodSensitive: true},
			{Name: "assets", DisplayName: "Total Assets", Description: "Total assets on the balance sheet", UnitType: UnitMoney, RequiredLevel: 1},
			{Name: "policyholder_surplus", DisplayName: "Policyholder Surplus", Description: "Assets minus liabilities available to policyholders", UnitType: UnitMoney, RequiredLevel: 2, Critical: true},
			{Name: "combined_ratio", DisplayName: "Combined Ratio", Description: "Loss ratio plus expense ratio", UnitType: UnitPercent, RequiredLevel: 2, Critical: true, PeriodSensitive: true},
			{Name: "loss_ratio", DisplayName: "Loss Ratio", Description: "Incurred losses over earned premium", UnitType: UnitPercent, RequiredLevel: 2, PeriodSensitive: true},
			{Name: "expense_ratio", DisplayName: "Expense Ratio", Description: "Underwriting expenses over written premium", UnitType: UnitPercent, RequiredLevel: 2, PeriodSensitive: true},
			{Name: "rbc_ratio", DisplayName: "RBC Ratio", Description: "Risk-based capital ratio", UnitType: UnitPercent, Aliases: []string{"risk_based_capital"}, RequiredLevel: 3, Critical: true},
		},
		Predicates: []ClaimPredicate{
			{Name: "is_admitted", DisplayName: "Admitted Carrier", Description: "Licensed as an admitted carrier", ValueKind: ValueBool, RequiredLevel: 1},
			{Name: "has_reinsurance", DisplayName: "Has Reinsurance", Description: "Carries a reinsurance program", ValueKind: ValueBool, RequiredLevel: 2},
			{Name: "am_best_rating", DisplayName: "AM Best Rating", Description: "Latest AM Best financial strength rating", ValueKind: ValueEnum, AllowedValues: []string{"a++", "a+", "a", "a-", "b++", "b+", "b", "not_rated"}, RequiredLevel: 2},
		},
		Risks: []RiskCategory{
			{Name: "reserve_adequacy", DisplayName: "Reserve Adequacy", Description: "Loss reserves may be understated", Indicators: []string{"adverse development", "reserve releases"}, RequiredLevel: 2},
			{Name: "catastrophe_exposure", DisplayName: "Catastrophe Exposure", Description: "Concentrated exposure to catastrophe perils", Indicators: []string{"coastal concentration", "thin reinsurance"}, RequiredLevel: 2},
		},
	}
}

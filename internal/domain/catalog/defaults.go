package catalog

// DefaultVersion identifies the built-in guideline set.
const DefaultVersion = "builtin-2024.10"

const openEndedAge = 120

var smokingHistory = []string{"tobacco", "smoking history", "current smoker", "former smoker", "nicotine dependence"}

// Default returns the built-in guideline catalog. Each call builds a fresh
// value so callers may not observe each other's changes.
func Default() *Catalog {
	return &Catalog{
		Version: DefaultVersion,
		Screenings: []ScreeningRule{
			{
				ID: "mammogram", Name: "Mammogram", MinAge: 40, MaxAge: 74, Sex: "female",
				SatisfiedBy:    []string{"mammogram", "mammography", "breast tomosynthesis"},
				IntervalMonths: 24, OrderCode: "77067",
				Description: "Biennial screening mammography for women aged 40 to 74.",
			},
			{
				ID: "cervical-cytology", Name: "Cervical Cancer Screening", MinAge: 21, MaxAge: 65, Sex: "female",
				SatisfiedBy:    []string{"pap smear", "pap test", "cervical cytology", "hpv test", "hpv co-test"},
				IntervalMonths: 36, OrderCode: "88142",
				Description: "Cervical cytology every 3 years (or HPV testing every 5 years from age 30).",
			},
			{
				ID: "colorectal", Name: "Colorectal Cancer Screening", MinAge: 45, MaxAge: 75,
				SatisfiedBy:    []string{"colonoscopy", "sigmoidoscopy", "fit test", "fecal immunochemical", "cologuard", "ct colonography"},
				IntervalMonths: 120, OrderCode: "45378",
				Description: "Colorectal cancer screening for adults aged 45 to 75.",
			},
			{
				ID: "lung-ldct", Name: "Lung Cancer Screening", MinAge: 50, MaxAge: 80,
				RequiresConditions: smokingHistory,
				SatisfiedBy:        []string{"low-dose ct", "ldct", "lung cancer screening"},
				IntervalMonths:     12, OrderCode: "71271",
				Description: "Annual low-dose CT for adults aged 50 to 80 with a smoking history.",
			},
			{
				ID: "aaa-ultrasound", Name: "Abdominal Aortic Aneurysm Screening", MinAge: 65, MaxAge: 75, Sex: "male",
				RequiresConditions: smokingHistory,
				SatisfiedBy:        []string{"aaa ultrasound", "aortic ultrasound", "abdominal aortic aneurysm screening"},
				OrderCode:          "76706",
				Description:        "One-time ultrasound for men aged 65 to 75 who have ever smoked.",
			},
			{
				ID: "bone-density", Name: "Osteoporosis Screening", MinAge: 65, MaxAge: openEndedAge, Sex: "female",
				SatisfiedBy:    []string{"dexa", "dxa", "bone density"},
				IntervalMonths: 24, OrderCode: "77080",
				Description: "Bone mineral density testing for women 65 and older.",
			},
			{
				ID: "diabetes-screening", Name: "Prediabetes and Type 2 Diabetes Screening", MinAge: 35, MaxAge: 70,
				RequiresConditions: []string{"obesity", "overweight", "prediabetes"},
				SatisfiedBy:        []string{"hemoglobin a1c", "hba1c", "a1c", "glucose tolerance", "fasting glucose"},
				IntervalMonths:     36, OrderCode: "83036",
				Description: "Glycemic screening for overweight or obese adults aged 35 to 70.",
			},
			{
				ID: "hepatitis-c", Name: "Hepatitis C Screening", MinAge: 18, MaxAge: 79,
				SatisfiedBy: []string{"hepatitis c", "hcv antibody", "hcv screen"},
				OrderCode:   "86803",
				Description: "One-time hepatitis C antibody screening for adults aged 18 to 79.",
			},
		},
		Immunizations: []ImmunizationRule{
			{
				ID: "influenza", Name: "Influenza Vaccine", MinAge: 0, MaxAge: openEndedAge,
				SatisfiedBy:    []string{"influenza", "flu vaccine", "flu shot", "fluzone", "flucelvax"},
				IntervalMonths: 12, OrderCode: "90686",
				Description: "Annual seasonal influenza vaccination.",
			},
			{
				ID: "tdap", Name: "Tdap/Td Booster", MinAge: 19, MaxAge: openEndedAge,
				SatisfiedBy:    []string{"tdap", "td booster", "tetanus", "boostrix", "adacel"},
				IntervalMonths: 120, OrderCode: "90715",
				Description: "Tetanus, diphtheria and pertussis booster every 10 years.",
			},
			{
				ID: "pneumococcal", Name: "Pneumococcal Vaccine", MinAge: 65, MaxAge: openEndedAge,
				SatisfiedBy: []string{"pneumococcal", "pcv20", "pcv15", "ppsv23", "prevnar", "pneumovax"},
				OrderCode:   "90677",
				Description: "Pneumococcal conjugate vaccination for adults 65 and older.",
			},
			{
				ID: "zoster", Name: "Shingles Vaccine", MinAge: 50, MaxAge: openEndedAge,
				SatisfiedBy: []string{"shingrix", "zoster", "shingles"},
				OrderCode:   "90750",
				Description: "Two-dose recombinant zoster vaccine series for adults 50 and older.",
			},
			{
				ID: "hpv", Name: "HPV Vaccine", MinAge: 9, MaxAge: 26,
				SatisfiedBy: []string{"hpv vaccine", "gardasil"},
				OrderCode:   "90651",
				Description: "HPV vaccination series through age 26.",
			},
			{
				ID: "hepatitis-b", Name: "Hepatitis B Vaccine", MinAge: 19, MaxAge: 59,
				SatisfiedBy: []string{"hepatitis b vaccine", "hep b vaccine", "heplisav", "engerix", "recombivax"},
				OrderCode:   "90739",
				Description: "Hepatitis B vaccination series for adults aged 19 to 59.",
			},
		},
		ChronicCare: []ChronicCareRule{
			{
				ID: "diabetes-a1c", Name: "Hemoglobin A1c", LabID: "hba1c",
				RequiresConditions: []string{"diabetes", "diabetic", "t2dm", "t1dm"},
				IntervalMonths:     6, OrderCode: "83036",
				Description: "HbA1c at least every 6 months for patients with diabetes.",
			},
			{
				ID: "diabetes-uacr", Name: "Urine Albumin-to-Creatinine Ratio", LabID: "uacr",
				RequiresConditions: []string{"diabetes", "diabetic", "chronic kidney disease", "ckd"},
				IntervalMonths:     12, OrderCode: "82043",
				Description: "Annual albuminuria screening for diabetes or chronic kidney disease.",
			},
			{
				ID: "lipid-panel", Name: "Lipid Panel", LabID: "lipid_panel",
				RequiresConditions: []string{"diabetes", "hyperlipidemia", "dyslipidemia", "coronary artery disease", "cad"},
				IntervalMonths:     12, OrderCode: "80061",
				Description: "Annual lipid panel for cardiometabolic disease.",
			},
			{
				ID: "renal-function", Name: "Basic Metabolic Panel", LabID: "bmp",
				RequiresConditions: []string{"hypertension", "chronic kidney disease", "ckd", "heart failure"},
				IntervalMonths:     12, OrderCode: "80048",
				Description: "Annual renal function and electrolytes.",
			},
			{
				ID: "thyroid-tsh", Name: "TSH", LabID: "tsh",
				RequiresConditions: []string{"hypothyroidism", "hyperthyroidism", "thyroid"},
				IntervalMonths:     12, OrderCode: "84443",
				Description: "Annual TSH for treated thyroid disease.",
			},
			{
				ID: "diabetic-eye-exam", Name: "Diabetic Retinal Exam", LabID: "retinal_exam",
				RequiresConditions: []string{"diabetes", "diabetic"},
				IntervalMonths:     12, OrderCode: "92250",
				Description: "Annual dilated or photographic retinal exam for patients with diabetes.",
			},
		},
		Interactions: []InteractionRule{
			{ID: "warfarin-ibuprofen", Drug1: "warfarin", Drug2: "ibuprofen", Severity: SeverityMajor,
				Description:    "NSAIDs increase bleeding risk with warfarin through antiplatelet effects and GI mucosal injury.",
				Recommendation: "Avoid combination; use acetaminophen for analgesia and monitor INR and signs of bleeding."},
			{ID: "warfarin-naproxen", Drug1: "warfarin", Drug2: "naproxen", Severity: SeverityMajor,
				Description:    "NSAIDs increase bleeding risk with warfarin.",
				Recommendation: "Avoid combination; prefer acetaminophen and monitor INR."},
			{ID: "warfarin-aspirin", Drug1: "warfarin", Drug2: "aspirin", Severity: SeverityMajor,
				Description:    "Additive bleeding risk from combined anticoagulant and antiplatelet therapy.",
				Recommendation: "Confirm a clear indication for dual therapy and monitor closely for bleeding."},
			{ID: "warfarin-amiodarone", Drug1: "warfarin", Drug2: "amiodarone", Severity: SeverityMajor,
				Description:    "Amiodarone inhibits warfarin metabolism and raises INR.",
				Recommendation: "Reduce warfarin dose by 30-50% and monitor INR weekly."},
			{ID: "warfarin-fluconazole", Drug1: "warfarin", Drug2: "fluconazole", Severity: SeverityMajor,
				Description:    "Fluconazole inhibits CYP2C9 and markedly increases warfarin effect.",
				Recommendation: "Consider an alternative antifungal or reduce warfarin dose with close INR monitoring."},
			{ID: "simvastatin-clarithromycin", Drug1: "simvastatin", Drug2: "clarithromycin", Severity: SeverityContraindicated,
				Description:    "Strong CYP3A4 inhibition raises simvastatin levels and rhabdomyolysis risk.",
				Recommendation: "Do not co-administer; hold simvastatin during clarithromycin therapy."},
			{ID: "sildenafil-nitroglycerin", Drug1: "sildenafil", Drug2: "nitroglycerin", Severity: SeverityContraindicated,
				Description:    "Combined PDE5 inhibition and nitrates can cause profound hypotension.",
				Recommendation: "Do not co-administer; avoid nitrates within 24 hours of sildenafil."},
			{ID: "phenelzine-fluoxetine", Drug1: "phenelzine", Drug2: "fluoxetine", Severity: SeverityContraindicated,
				Description:    "MAO inhibitor with SSRI can precipitate serotonin syndrome.",
				Recommendation: "Do not co-administer; observe the required washout period."},
			{ID: "tizanidine-ciprofloxacin", Drug1: "tizanidine", Drug2: "ciprofloxacin", Severity: SeverityContraindicated,
				Description:    "Ciprofloxacin inhibits CYP1A2 and greatly increases tizanidine exposure.",
				Recommendation: "Do not co-administer; choose a different antibiotic."},
			{ID: "lisinopril-spironolactone", Drug1: "lisinopril", Drug2: "spironolactone", Severity: SeverityMajor,
				Description:    "ACE inhibitor with potassium-sparing diuretic increases hyperkalemia risk.",
				Recommendation: "Monitor potassium and renal function within one week of starting and periodically."},
			{ID: "sertraline-tramadol", Drug1: "sertraline", Drug2: "tramadol", Severity: SeverityMajor,
				Description:    "Additive serotonergic effect and lowered seizure threshold.",
				Recommendation: "Prefer a non-serotonergic analgesic or monitor for serotonin syndrome."},
			{ID: "methotrexate-trimethoprim", Drug1: "methotrexate", Drug2: "trimethoprim", Severity: SeverityMajor,
				Description:    "Additive antifolate effect increases risk of bone marrow suppression.",
				Recommendation: "Avoid combination or monitor blood counts closely."},
			{ID: "digoxin-amiodarone", Drug1: "digoxin", Drug2: "amiodarone", Severity: SeverityMajor,
				Description:    "Amiodarone raises digoxin concentration.",
				Recommendation: "Reduce digoxin dose by about half and monitor levels."},
			{ID: "lithium-ibuprofen", Drug1: "lithium", Drug2: "ibuprofen", Severity: SeverityMajor,
				Description:    "NSAIDs reduce renal lithium clearance, risking lithium toxicity.",
				Recommendation: "Avoid NSAIDs or monitor lithium levels closely."},
			{ID: "clopidogrel-omeprazole", Drug1: "clopidogrel", Drug2: "omeprazole", Severity: SeverityModerate,
				Description:    "Omeprazole inhibits CYP2C19 activation of clopidogrel.",
				Recommendation: "Consider pantoprazole as an alternative proton pump inhibitor."},
			{ID: "metoprolol-verapamil", Drug1: "metoprolol", Drug2: "verapamil", Severity: SeverityModerate,
				Description:    "Additive negative chronotropic and inotropic effects.",
				Recommendation: "Monitor heart rate and blood pressure; watch for AV block."},
			{ID: "levothyroxine-calcium", Drug1: "levothyroxine", Drug2: "calcium carbonate", Severity: SeverityMinor,
				Description:    "Calcium reduces levothyroxine absorption.",
				Recommendation: "Separate administration by at least 4 hours."},
		},
		CrossReactivity: []CrossReactivityClass{
			{
				ID: "penicillins", Name: "Penicillins",
				Allergens: []string{"penicillin", "pcn"},
				Members: []string{"amoxicillin", "ampicillin", "piperacillin", "nafcillin", "oxacillin",
					"dicloxacillin", "augmentin", "cephalexin", "cefazolin"},
				Description: "Beta-lactam cross-reactivity between penicillins and first-generation cephalosporins.",
			},
			{
				ID: "cephalosporins", Name: "Cephalosporins",
				Allergens:   []string{"cephalosporin"},
				Members:     []string{"cephalexin", "cefazolin", "cefuroxime", "ceftriaxone", "cefdinir", "cefepime"},
				Description: "Class cross-reactivity among cephalosporins.",
			},
			{
				ID: "sulfonamides", Name: "Sulfonamide antibiotics",
				Allergens:   []string{"sulfa", "sulfonamide"},
				Members:     []string{"sulfamethoxazole", "bactrim", "sulfadiazine", "sulfasalazine"},
				Description: "Cross-reactivity among sulfonamide antibiotics.",
			},
			{
				ID: "nsaids", Name: "NSAIDs",
				Allergens:   []string{"nsaid", "aspirin", "ibuprofen", "naproxen"},
				Members:     []string{"aspirin", "ibuprofen", "naproxen", "ketorolac", "diclofenac", "meloxicam", "celecoxib"},
				Description: "COX-inhibitor cross-sensitivity.",
			},
			{
				ID: "opioids", Name: "Opioids (phenanthrenes)",
				Allergens:   []string{"codeine", "morphine"},
				Members:     []string{"codeine", "morphine", "hydrocodone", "oxycodone", "hydromorphone"},
				Description: "Cross-sensitivity among phenanthrene opioids.",
			},
		},
	}
}

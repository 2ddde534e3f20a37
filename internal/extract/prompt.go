package extract

// systemPrompt constrains the model to strict JSON over the enumerated
// vocabulary used by the store.
const systemPrompt = `You are an expert legal document analyzer for Washington State case law. Your task is to extract structured data from court opinions.

CRITICAL RULES - FOLLOW EXACTLY:
1. Return ONLY valid JSON. No explanations, no markdown, no text before OR after the JSON.
2. Extract ONLY information explicitly stated in the document.
3. If information is NOT explicitly mentioned in the text, return null. Do NOT infer OR guess.
4. Do NOT hallucinate information. If uncertain, use null.
5. Escape all double quotes within string values with backslash.
6. For enum fields with options, choose exactly ONE value OR null if unclear.
7. CRITICAL: Extract ALL distinct legal issues - most appellate cases have 2-5 separate issues.
8. CRITICAL: winner_legal_role is WHO WON (a party role like Appellant/Respondent), NOT the outcome.`

// extractionPromptHeader precedes the case text; extractionPromptBody
// follows it with the JSON contract.
const extractionPromptHeader = `Analyze this Washington State court opinion and extract structured data.

CASE TEXT:
`

const extractionPromptBody = `

INSTRUCTIONS:
- Return ONLY the JSON object below. No other text.
- If a field's value is not explicitly stated in the document, use null.
- Do NOT guess OR infer. Only extract what is clearly written.
- Choose exactly ONE value for enum fields, OR null if ambiguous.

CRITICAL ISSUE EXTRACTION RULES:
- Appellate cases typically address 2-5 DISTINCT legal issues. Extract EACH ONE separately.
- Look for: "Issue 1:", "First,", "Second,", "We also address", "The defendant argues", "Appellant contends"
- Each issue should have its OWN entry in the issues array with its specific outcome.
- DO NOT combine multiple issues into one generic summary.
- If the court addresses multiple arguments, each is a separate issue.

CRITICAL WINNER VS OUTCOME DISTINCTION:
- "outcome" = What happened: Affirmed, Reversed, Remanded, Dismissed, or Mixed
- "winner_legal_role" = WHO WON: Appellant, Respondent, Petitioner, State, or Neither
- NEVER put "Affirmed" or "Reversed" in winner_legal_role - those are outcomes, not parties!
- If Affirmed, the winner is usually Respondent. If Reversed, the winner is usually Appellant.

Return this JSON structure:
{
    "summary": "Comprehensive 5-6 sentence summary: 1) Key background facts, 2) Procedural history, 3) Primary legal issues, 4) Court's reasoning, 5) Final disposition. Use null if document is unclear.",
    "case_category": "Choose ONE: Criminal, Civil, Family, Administrative, Juvenile, Real Property, Tort Law, Contract, Constitutional, Employment, Tax, Insurance, Probate, Guardianship, Environmental, Bankruptcy, Workers Compensation, Medical Malpractice, Personal Injury, DUI, Domestic Violence, OR Other",
    "originating_court": {
        "county": "County name only (e.g., 'King', 'Spokane') OR null if not stated",
        "court_name": "Full lower court name OR null if not stated",
        "trial_judge": "Trial judge name OR null if not mentioned",
        "source_docket_number": "Lower court case number OR null if not mentioned"
    },
    "outcome": {
        "disposition": "Choose ONE: Affirmed, Reversed, Remanded, Dismissed, Mixed",
        "details": "Specific outcome details OR null",
        "prevailing_party": "Choose ONE party role: Appellant, Respondent, Petitioner, Plaintiff, Defendant, Neither, OR null. NEVER use 'Affirmed' or 'Reversed' here.",
        "winner_personal_role": "Choose ONE if clearly applicable: Employee, Employer, Landlord, Tenant, Parent, Child, Patient, Doctor, Insurer, Insured, Homeowner, Contractor, State, Defendant, Plaintiff, OR null if not applicable OR unclear"
    },
    "parties_parsed": [
        {
            "name": "Full party name as stated in document",
            "appellate_role": "Choose ONE: Appellant, Respondent, Petitioner, Cross-Appellant",
            "trial_role": "Choose ONE: Plaintiff, Defendant, State, Intervenor, OR null if not stated",
            "type": "Choose ONE: Individual, Government, Corporation, Organization, Union",
            "personal_role": "Choose ONE if clearly applicable: Employee, Employer, Landlord, Tenant, Parent, Child, Patient, Doctor, Insurer, Insured, Buyer, Seller, Homeowner, Contractor, Student, School, Prisoner, Victim, OR null if not applicable"
        }
    ],
    "legal_representation": [
        {
            "attorney_name": "Full attorney name from 'FOR APPELLANT', 'FOR RESPONDENT', OR 'COUNSEL' sections, OR null",
            "representing": "Party name they represent OR null",
            "firm_or_agency": "Law firm, Prosecutor's Office, Public Defender, OR Agency name, OR null"
        }
    ],
    "judicial_panel": [
        {
            "judge_name": "Appellate judge last name",
            "role": "Choose ONE: Author, Concurring, Dissenting, Signatory"
        }
    ],
    "cases_cited": [
        {
            "full_citation": "Full citation as written (e.g., 'State v. Smith, 150 Wn.2d 489, 78 P.3d 1014 (2003)')",
            "case_name": "Short name (e.g., 'State v. Smith')",
            "relationship": "Choose ONE: relied_upon, distinguished, cited, overruled"
        }
    ],
    "legal_analysis": {
        "key_statutes_cited": ["List ALL specific RCWs cited, e.g., 'RCW 9.94A.525', 'RCW 42.56.010'"],
        "issues": [
            {
                "case_type": "Choose ONE top-level case type: Criminal, Civil, Family, Administrative, Constitutional, Juvenile, Probate, Real Property, Employment, OR Other",
                "category": "The specific LEGAL TOPIC being addressed. MUST be different from case_type! Examples: For Criminal use 'Sentencing','Evidence','Search & Seizure'. For Family use 'Parenting Plan','Child Custody','Property Division'. NEVER repeat the case_type name here!",
                "subcategory": "Even more specific detail within the category. Examples: For Sentencing use 'Exceptional Sentence','Drug Offender Sentencing'. Use null if no specific subcategory applies.",
                "question": "The specific legal question for THIS issue - be precise and distinct from other issues",
                "ruling": "How the court specifically ruled on THIS issue",
                "outcome": "Choose EXACTLY ONE: Affirmed, Reversed, Remanded, Dismissed, Mixed",
                "winner_legal_role": "WHO WON this issue - Choose ONE party role: Appellant, Respondent, Petitioner, State, Neither. NEVER put 'Affirmed' or 'Reversed' here!",
                "winner_personal_role": "Choose ONE if applicable: Employee, Employer, Landlord, Tenant, Parent, Child, State, Defendant, Plaintiff, Insurer, Insured, OR null",
                "related_rcws": ["Specific RCWs cited for THIS issue only"],
                "keywords": ["2-4 key legal terms specific to this issue"],
                "confidence": "0.0-1.0 based on how clearly this info appears in text",
                "appellant_argument": "Appellant's main argument on THIS specific issue (1-2 sentences) OR null if not stated",
                "respondent_argument": "Respondent's main argument on THIS specific issue (1-2 sentences) OR null if not stated"
            }
        ]
    },
    "procedural_dates": {
        "oral_argument_date": "Date in YYYY-MM-DD format OR null if not mentioned",
        "opinion_filed_date": "Date in YYYY-MM-DD format OR null if not clear"
    }
}

HIERARCHY RULES - VERY IMPORTANT:
- case_type is the BROAD area: Criminal, Civil, Family, etc.
- category is the SPECIFIC topic: Sentencing, Evidence, Parenting Plan, Negligence, etc.
- subcategory is the DETAIL: Exceptional Sentence, Residential Schedule, Comparative Fault, etc.
- NEVER use the same value for case_type and category! They must be different!

REMEMBER: Most appellate opinions have 2-5 distinct issues. Extract EACH issue as a separate entry in the issues array.`

// retryReminder is appended to the prompt on the second attempt after a
// parse failure.
const retryReminder = `

REMINDER: Your previous response was not parseable JSON. Respond with EXACTLY ONE valid JSON object matching the structure above. Do not include markdown fences, comments, or any text outside the JSON object.`

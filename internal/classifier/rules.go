package classifier

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// rule flags content containing any of its phrases. Phrases are matched
// case-insensitively; French, Tunisian Arabic and English variants share a
// rule.
type rule struct {
	name       string
	threatType string
	phrases    []string
	confidence float64
}

var rules = []rule{
	{"bank_credentials", "Bank Impersonation", []string{
		"biat", "stb", "attijari", "banque", "bank", "carte bancaire", "code pin", "mot de passe", "password",
	}, 0.7},
	{"payment_request", "Payment Scam", []string{
		"payez", "paiement", "virement", "transfer", "pay now", "frais", "dinars", " dt",
	}, 0.6},
	{"mobile_money", "Fake Mobile Money", []string{
		"d17", "flouci", "e-dinar", "edinar", "recharge", "solde",
	}, 0.6},
	{"delivery", "Delivery Notification Scam", []string{
		"colis", "livraison", "aramex", "rapid poste", "parcel", "package",
	}, 0.5},
	{"prize", "Payment Scam", []string{
		"gagné", "gagnant", "félicitations", "congratulations", "winner", "cadeau", "mabrouk",
	}, 0.6},
	{"authority", "Government Impersonation", []string{
		"ministère", "ministry", "police", "douane", "cnss", "impôts", "amende",
	}, 0.6},
	{"urgency", "SMS Phishing (Smishing)", []string{
		"urgent", "immédiatement", "bloqué", "suspendu", "expire", "dernier délai", "within 24",
	}, 0.4},
	{"job_offer", "Job Offer Scam", []string{
		"offre d'emploi", "recrutement", "travail à domicile", "work from home", "salaire",
	}, 0.5},
	{"investment", "Investment Scam", []string{
		"crypto", "bitcoin", "investissement", "rendement", "forex",
	}, 0.6},
}

var (
	linkPattern      = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	shortLinkPattern = regexp.MustCompile(`(?i)\b(?:bit\.ly|tinyurl\.com|t\.co|goo\.gl|cutt\.ly|is\.gd)/\S+`)
	phonePattern     = regexp.MustCompile(`\+?216[\s-]?\d{2}[\s-]?\d{3}[\s-]?\d{3}`)
)

const (
	detectThreshold = 50
	findingWeight   = 30
)

// RuleClassifier scores content against a fixed keyword and pattern rule
// set. It needs no network access and is used when no model is configured.
type RuleClassifier struct {
	rules []rule
}

// NewRuleClassifier returns a RuleClassifier loaded with the default rules.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{rules: rules}
}

type finding struct {
	flag       string
	threatType string
	confidence float64
}

// Classify implements Classifier.
func (r *RuleClassifier) Classify(_ context.Context, content string, ct ContentType) (*Result, error) {
	lower := strings.ToLower(content)

	var findings []finding
	for _, rl := range r.rules {
		for _, p := range rl.phrases {
			if strings.Contains(lower, p) {
				findings = append(findings, finding{
					flag:       rl.name + ": " + strings.TrimSpace(p),
					threatType: rl.threatType,
					confidence: rl.confidence,
				})
				break
			}
		}
	}
	if m := shortLinkPattern.FindString(content); m != "" {
		findings = append(findings, finding{"shortened link: " + m, "SMS Phishing (Smishing)", 0.8})
	} else if m := linkPattern.FindString(content); m != "" {
		findings = append(findings, finding{"link: " + m, "SMS Phishing (Smishing)", 0.4})
	}
	if ct == ContentCall && phonePattern.MatchString(content) {
		findings = append(findings, finding{"callback number", "Tech Support Scam", 0.3})
	}

	total := 0.0
	for _, f := range findings {
		total += f.confidence * findingWeight
	}
	if total > 100 {
		total = 100
	}

	res := &Result{
		Score:       total,
		RedFlags:    make([]string, 0, len(findings)),
		SafeActions: []string{},
	}
	for _, f := range findings {
		res.RedFlags = append(res.RedFlags, f.flag)
	}

	if total < detectThreshold {
		res.Explanation = "No strong scam indicators found."
		return res, nil
	}

	// The strongest finding names the threat; earlier rules win ties.
	sort.SliceStable(findings, func(i, j int) bool { return findings[i].confidence > findings[j].confidence })
	res.ThreatDetected = true
	res.ThreatType = findings[0].threatType
	res.Severity = severityFor(total)
	res.Explanation = "Message matches known scam patterns: " + strings.Join(res.RedFlags, "; ") + "."
	res.SafeActions = []string{
		"Do not click links or reply",
		"Never share card numbers, PIN or passwords",
		"Contact the organisation through its official number",
		"Report the message to your carrier",
	}
	return res, nil
}

func severityFor(score float64) string {
	switch {
	case score >= 85:
		return "Critical"
	case score >= 65:
		return "High"
	case score >= 35:
		return "Medium"
	default:
		return "Low"
	}
}

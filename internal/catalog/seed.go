package catalog

// DefaultEntries returns the catalog the service ships with, in the order
// it is seeded. Resolve falls back to the first of these.
func DefaultEntries() []Entry {
	return []Entry{
		{
			Type: "SMS Phishing (Smishing)", Category: CategorySMS, Severity: SeverityHigh,
			Description: "Fraudulent SMS messages pretending to be from legitimate organizations to steal personal information",
			Signature:   "urgent action, click link, verify account, suspicious URLs",
		},
		{
			Type: "Payment Scam", Category: CategorySMS, Severity: SeverityCritical,
			Description: "Fake payment requests or lottery winnings designed to extract money",
			Signature:   "won prize, transfer money, urgent payment, bank details",
		},
		{
			Type: "Fake Mobile Money", Category: CategorySMS, Severity: SeverityCritical,
			Description: "Impersonation of mobile money services (D17, Flouci, Sobflous, Orange Money)",
			Signature:   "D17, Flouci, mobile money, transfer failed, account blocked",
		},
		{
			Type: "Bank Impersonation", Category: CategorySMS, Severity: SeverityCritical,
			Description: "Messages pretending to be from banks requesting sensitive information",
			Signature:   "bank, ATM, card blocked, verify identity, suspicious activity",
		},
		{
			Type: "Government Impersonation", Category: CategorySMS, Severity: SeverityHigh,
			Description: "Fake messages claiming to be from government agencies",
			Signature:   "government, ministry, fine, tax, official notice",
		},
		{
			Type: "Tech Support Scam", Category: CategoryCall, Severity: SeverityMedium,
			Description: "Fake technical support calls claiming device issues",
			Signature:   "computer virus, technical support, remote access, software issue",
		},
		{
			Type: "Romance Scam", Category: CategoryAppMessage, Severity: SeverityHigh,
			Description: "Fraudulent romantic relationships to extract money",
			Signature:   "love, relationship, emergency funds, travel money, meet in person",
		},
		{
			Type: "Job Offer Scam", Category: CategorySMS, Severity: SeverityMedium,
			Description: "Fake job opportunities requiring upfront payment",
			Signature:   "job offer, work from home, easy money, registration fee",
		},
		{
			Type: "Delivery Notification Scam", Category: CategorySMS, Severity: SeverityMedium,
			Description: "Fake delivery or package notifications with malicious links",
			Signature:   "package, delivery, shipment, track order, customs fee",
		},
		{
			Type: "COVID-19 Related Scam", Category: CategorySMS, Severity: SeverityHigh,
			Description: "Exploitation of pandemic-related concerns",
			Signature:   "vaccine, COVID, pandemic, health pass, test result",
		},
		{
			Type: "Charity Scam", Category: CategorySMS, Severity: SeverityMedium,
			Description: "Fake charitable organizations requesting donations",
			Signature:   "donation, charity, help, humanitarian, disaster relief",
		},
		{
			Type: "Investment Scam", Category: CategoryAppMessage, Severity: SeverityCritical,
			Description: "Fraudulent investment opportunities promising high returns",
			Signature:   "investment, crypto, bitcoin, guaranteed returns, passive income",
		},
		{
			Type: "Identity Theft", Category: CategorySMS, Severity: SeverityCritical,
			Description: "Attempts to steal personal identification information",
			Signature:   "verify identity, CIN, ID number, passport, birth certificate",
		},
		{
			Type: "Account Takeover", Category: CategorySMS, Severity: SeverityHigh,
			Description: "Unauthorized access attempts to online accounts",
			Signature:   "password reset, suspicious login, account access, verification code",
		},
		{
			Type: "Malware Distribution", Category: CategoryAppMessage, Severity: SeverityCritical,
			Description: "Messages containing malicious links or attachments",
			Signature:   "download app, install software, click here, open attachment",
		},
	}
}

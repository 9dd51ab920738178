// Package catalog holds the stable threat catalog and the policy that maps
// free-form classifier labels onto it.
package catalog

import "strings"

// family is one keyword group tried by Resolve. Families are checked in
// slice order and keywords within a family in slice order.
type family struct {
	name     string
	keywords []string
}

var families = []family{
	{"Phishing", []string{"Phishing", "Smishing", "Email"}},
	{"Payment", []string{"Payment", "Money", "Transfer"}},
	{"Banking", []string{"Bank", "Account", "Finance"}},
	{"Government", []string{"Government", "Authority", "Official"}},
	{"Tech", []string{"Tech", "Support", "Microsoft", "Apple"}},
	{"Investment", []string{"Investment", "Stock", "Crypto"}},
	{"Scam", []string{"Scam", "Fraud"}},
	{"Malware", []string{"Malware", "Virus", "Trojan"}},
}

// Resolve maps a classifier label onto one of entries, which must be in
// insertion order. The first rule that produces a match wins:
//
//  1. an entry whose Type equals label exactly (case-sensitive);
//  2. for each family keyword contained in label (case-insensitive), the
//     first entry whose Type also contains that keyword;
//  3. the first entry.
//
// The second return value is false only when entries is empty.
func Resolve(label string, entries []Entry) (*Entry, bool) {
	if len(entries) == 0 {
		return nil, false
	}

	for i := range entries {
		if entries[i].Type == label {
			return &entries[i], true
		}
	}

	lower := strings.ToLower(label)
	for _, f := range families {
		for _, kw := range f.keywords {
			k := strings.ToLower(kw)
			if !strings.Contains(lower, k) {
				continue
			}
			for i := range entries {
				if strings.Contains(strings.ToLower(entries[i].Type), k) {
					return &entries[i], true
				}
			}
		}
	}

	return &entries[0], true
}

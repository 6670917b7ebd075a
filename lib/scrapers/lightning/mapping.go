package lightning

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// ObjectKind is one of the five record categories the scraper supports.
type ObjectKind string

const (
	Lead        ObjectKind = "Lead"
	Contact     ObjectKind = "Contact"
	Account     ObjectKind = "Account"
	Opportunity ObjectKind = "Opportunity"
	Task        ObjectKind = "Task"
)

var ObjectKinds = []ObjectKind{Lead, Contact, Account, Opportunity, Task}

// PluralKey is the key the kind's record sequence is stored under in the
// persisted document. External tooling depends on these exact names.
func (k ObjectKind) PluralKey() string {
	switch k {
	case Opportunity:
		return "opportunities"
	default:
		return strings.ToLower(string(k)) + "s"
	}
}

// FieldMappings translates the labels the UI renders to canonical field
// keys, per object kind. Several labels may alias the same key; the last
// alias in sorted label order wins when a page renders more than one.
var FieldMappings = map[ObjectKind]map[string]string{
	Lead: {
		"Name":              "name",
		"Lead Name":         "name",
		"Lead Full Name":    "name",
		"Company":           "company",
		"Company / Account": "company",
		"Email":             "email",
		"Phone":             "phone",
		"Lead Source":       "leadSource",
		"Lead Status":       "leadStatus",
		"Status":            "leadStatus",
		"Lead Owner":        "leadOwner",
		"Owner":             "leadOwner",
		"Lead Owner Alias":  "leadOwner",
	},
	Contact: {
		"Name":                "name",
		"Contact Name":        "name",
		"Full Name":           "name",
		"Email":               "email",
		"Phone":               "phone",
		"Business Phone":      "phone",
		"Account Name":        "accountName",
		"Account":             "accountName",
		"Title":               "title",
		"Contact Owner":       "contactOwner",
		"Owner":               "contactOwner",
		"Contact Owner Alias": "contactOwner",
		"Mailing Address":     "mailingAddress",
	},
	Account: {
		"Account Name":        "accountName",
		"Name":                "accountName",
		"Website":             "website",
		"Phone":               "phone",
		"Industry":            "industry",
		"Type":                "type",
		"Account Owner":       "accountOwner",
		"Owner":               "accountOwner",
		"Account Owner Alias": "accountOwner",
		"Annual Revenue":      "annualRevenue",
	},
	Opportunity: {
		"Opportunity Name":        "name",
		"Name":                    "name",
		"Amount":                  "amount",
		"Stage":                   "stage",
		"Probability (%)":         "probability",
		"Probability":             "probability",
		"Close Date":              "closeDate",
		"Forecast Category":       "forecastCategory",
		"Opportunity Owner":       "opportunityOwner",
		"Owner":                   "opportunityOwner",
		"Opportunity Owner Alias": "opportunityOwner",
		"Account Name":            "associatedAccount",
		"Account":                 "associatedAccount",
	},
	Task: {
		"Subject":           "subject",
		"Due Date":          "dueDate",
		"Status":            "status",
		"Priority":          "priority",
		"Related To":        "relatedTo",
		"Related To ID":     "relatedTo",
		"Assigned To":       "assignedTo",
		"Assigned To Alias": "assignedTo",
	},
}

// Schemas defines exactly which canonical fields a normalized record of each
// kind carries. Order is presentational only.
var Schemas = map[ObjectKind][]string{
	Lead: {
		"name", "company", "email", "phone",
		"leadSource", "leadStatus", "leadOwner",
	},
	Contact: {
		"name", "email", "phone", "accountName",
		"title", "contactOwner", "mailingAddress",
	},
	Account: {
		"accountName", "website", "phone", "industry",
		"type", "accountOwner", "annualRevenue",
	},
	Opportunity: {
		"name", "amount", "stage", "probability",
		"closeDate", "forecastCategory", "opportunityOwner",
		"associatedAccount",
	},
	Task: {
		"subject", "dueDate", "status", "priority",
		"relatedTo", "assignedTo",
	},
}

func schemaHas(schema []string, key string) bool {
	for _, k := range schema {
		if k == key {
			return true
		}
	}
	return false
}

// applyMapping reconciles extracted label/value pairs against the kind's
// mapping table. Labels are visited in sorted order so alias collisions
// resolve the same way every run.
func applyMapping(ctx context.Context, rawLabels map[string]string, mapping map[string]string) map[string]string {
	labels := make([]string, 0, len(mapping))
	for label := range mapping {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	mapped := map[string]string{}
	for _, label := range labels {
		if value, ok := rawLabels[label]; ok {
			mapped[mapping[label]] = value
		}
	}

	for label := range rawLabels {
		if _, ok := mapping[label]; !ok {
			logUnmappedLabel(ctx, mapping, label)
		}
	}
	return mapped
}

// logUnmappedLabel reports a label the mapping table doesn't know, with the
// closest known label as a hint for extending the table. Matching itself
// stays exact.
func logUnmappedLabel(ctx context.Context, mapping map[string]string, label string) {
	if label == "" {
		return
	}

	closest := ""
	var closestScore float64
	for known := range mapping {
		score := matchr.JaroWinkler(label, known, false)
		if score > closestScore {
			closestScore = score
			closest = known
		}
	}
	if closestScore < 0.8 {
		closest = ""
	}

	slog.DebugContext(ctx, "unmapped field label", "label", label, "closest_known", closest)
}

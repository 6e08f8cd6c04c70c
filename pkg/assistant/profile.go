package assistant

import (
	"fmt"
	"sort"
)

// Profile selects a system prompt and tool surface for a chat assistant.
type Profile struct {
	Name        string
	Description string
	System      string
}

var profiles = map[string]Profile{
	"data-qa": {
		Name:        "data-qa",
		Description: "Answers questions about uploaded datasets with SQL",
		System: `You are a data analyst assistant. Answer questions about the
user's datasets. Use list_tables to discover what data exists, run_query to
compute answers with SQL, and search_dictionary to understand column
meanings. Show the numbers you found and keep answers short. Only state
facts you computed from query results.`,
	},
	"ontology": {
		Name:        "ontology",
		Description: "Helps document columns and business terminology",
		System: `You are a data steward assistant. Help the user build a data
dictionary: propose clear column descriptions and consistent business terms.
Use search_dictionary to check existing definitions, list_tables to see what
datasets exist, and run_query to sample values before describing a column.`,
	},
	"recipe": {
		Name:        "recipe",
		Description: "Helps design ML training recipes over datasets",
		System: `You are an ML engineering assistant. Help the user design
training recipes: pick target and feature columns, flag leakage risks, and
suggest evaluation metrics. Use list_tables and run_query to inspect the
data and search_dictionary for column semantics before recommending
features.`,
	},
}

// ProfileByName resolves a profile, failing on unknown names.
func ProfileByName(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown assistant profile: %s", name)
	}

	return p, nil
}

// ProfileNames lists the available profiles in stable order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

package lexicon

// defaultEntries is the built-in vocabulary. Order matters: it breaks fuzzy-match ties.
var defaultEntries = []Entry{
	{Name: "python", Aliases: []string{"py", "python3"}},
	{Name: "go", Aliases: []string{"golang", "go lang"}},
	{Name: "java"},
	{Name: "javascript", Aliases: []string{"js", "ecmascript"}},
	{Name: "typescript", Aliases: []string{"ts"}},
	{Name: "c++", Aliases: []string{"cpp"}},
	{Name: "c#", Aliases: []string{"csharp", "c sharp"}},
	{Name: "rust"},
	{Name: "ruby"},
	{Name: "sql"},
	{Name: "postgresql", Aliases: []string{"postgres", "psql"}},
	{Name: "mysql"},
	{Name: "sqlite"},
	{Name: "mongodb", Aliases: []string{"mongo"}},
	{Name: "redis"},
	{Name: "kafka", Aliases: []string{"apache kafka"}},
	{Name: "aws", Aliases: []string{"amazon web services"}},
	{Name: "gcp", Aliases: []string{"google cloud", "google cloud platform"}},
	{Name: "azure", Aliases: []string{"microsoft azure"}},
	{Name: "kubernetes", Aliases: []string{"k8s", "kube"}},
	{Name: "docker", Aliases: []string{"containers"}},
	{Name: "terraform"},
	{Name: "ansible"},
	{Name: "linux", Aliases: []string{"unix"}},
	{Name: "windows server"},
	{Name: "git", Aliases: []string{"github", "gitlab"}},
	{Name: "ci/cd", Aliases: []string{"cicd", "continuous integration", "continuous delivery"}},
	{Name: "react", Aliases: []string{"reactjs", "react.js"}},
	{Name: "node.js", Aliases: []string{"nodejs", "node"}},
	{Name: "graphql"},
	{Name: "rest api", Aliases: []string{"rest apis", "restful"}},
	{Name: "grpc"},
	{Name: "machine learning", Aliases: []string{"ml"}},
	{Name: "generative ai", Aliases: []string{"genai", "llm", "llms"}},
	{Name: "prompt engineering"},
	{Name: "ai governance", Aliases: []string{"responsible ai"}},
	{Name: "iso 42001", Aliases: []string{"iso/iec 42001"}},
	{Name: "active directory", Aliases: []string{"ldap"}},
	{Name: "networking", Aliases: []string{"tcp/ip"}},
	{Name: "network security", Aliases: []string{"cybersecurity"}},
	{Name: "vpn", Aliases: []string{"virtual private network"}},
	{Name: "cisco", Aliases: []string{"meraki", "cisco meraki"}},
	{Name: "help desk", Aliases: []string{"service desk", "technical support"}},
	{Name: "sla", Aliases: []string{"service level agreement"}},
	{Name: "technical training", Aliases: []string{"enablement", "onboarding"}},
	{Name: "prometheus"},
	{Name: "grafana"},
	{Name: "spark", Aliases: []string{"apache spark"}},
	{Name: "airflow", Aliases: []string{"apache airflow"}},
}

var defaultLexicon = MustNew(defaultEntries)

// Default returns the built-in lexicon.
func Default() *Lexicon {
	return defaultLexicon
}

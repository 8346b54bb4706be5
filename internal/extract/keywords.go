package extract

import "github.com/kailas-cloud/rankdex/internal/domain"

// techCategory is one technology keyword set. Weight reflects domain
// specificity: narrow categories say more about a query than broad ones.
type techCategory struct {
	name     string
	weight   float64
	keywords []string // longest-first, see init
}

// Category tables are checked longest-keyword-first so that "react
// native" is claimed before "react" and "java" never fires inside
// "javascript" (whole-word matching handles the latter, ordering the
// former).
var techCategories = []techCategory{
	{name: "react-native", weight: 1.0, keywords: []string{
		"react native", "react-native", "expo", "metro bundler",
	}},
	{name: "react", weight: 0.9, keywords: []string{
		"react", "jsx", "redux", "react hooks", "next.js", "nextjs",
	}},
	{name: "javascript", weight: 0.7, keywords: []string{
		"javascript", "typescript", "node.js", "nodejs", "node", "deno", "js",
	}},
	{name: "python", weight: 0.8, keywords: []string{
		"python", "django", "flask", "fastapi", "pandas", "numpy",
	}},
	{name: "go", weight: 0.8, keywords: []string{
		"golang", "goroutine", "go module", "go",
	}},
	{name: "java", weight: 0.8, keywords: []string{
		"java", "spring boot", "spring", "jvm", "kotlin",
	}},
	{name: "mobile", weight: 0.8, keywords: []string{
		"ios", "android", "swift", "swiftui", "flutter", "mobile app",
	}},
	{name: "database", weight: 0.6, keywords: []string{
		"postgresql", "postgres", "mysql", "sqlite", "mongodb", "redis", "sql", "database",
	}},
	{name: "devops", weight: 0.7, keywords: []string{
		"kubernetes", "docker", "terraform", "ansible", "ci/cd", "github actions",
	}},
	{name: "machine-learning", weight: 0.9, keywords: []string{
		"machine learning", "deep learning", "tensorflow", "pytorch",
		"neural network", "llm", "embedding",
	}},
	{name: "web", weight: 0.5, keywords: []string{
		"html", "css", "frontend", "backend", "webpack", "rest api", "graphql", "web",
	}},
	{name: "cloud", weight: 0.7, keywords: []string{
		"aws", "azure", "gcp", "serverless", "lambda", "cloud",
	}},
}

// classKeywords maps a classification label to its keyword set.
type classKeywords[T ~string] struct {
	label    T
	keywords []string
}

var contentTypeClasses = []classKeywords[domain.ContentType]{
	{domain.ContentTutorial, []string{
		"tutorial", "guide", "how to", "walkthrough", "course", "learn", "step by step",
	}},
	{domain.ContentDocumentation, []string{
		"documentation", "docs", "reference", "api reference", "manual", "spec",
	}},
	{domain.ContentProject, []string{
		"project", "build", "create", "app", "clone", "from scratch",
	}},
	{domain.ContentPractice, []string{
		"exercise", "challenge", "practice", "kata", "quiz", "interview",
	}},
	{domain.ContentArticle, []string{
		"article", "blog", "post", "opinion", "review", "deep dive",
	}},
}

var difficultyClasses = []classKeywords[domain.Difficulty]{
	{domain.DifficultyBeginner, []string{
		"beginner", "basics", "introduction", "getting started", "fundamentals", "first",
	}},
	{domain.DifficultyIntermediate, []string{
		"intermediate", "practical", "in depth", "beyond basics", "real world",
	}},
	{domain.DifficultyAdvanced, []string{
		"advanced", "expert", "internals", "deep dive", "optimization", "production grade",
	}},
}

var intentClasses = []classKeywords[domain.Intent]{
	{domain.IntentLearning, []string{
		"learn", "understand", "study", "explain", "course", "tutorial",
	}},
	{domain.IntentImplementation, []string{
		"build", "implement", "create", "develop", "integrate", "setup", "add",
	}},
	{domain.IntentTroubleshooting, []string{
		"fix", "debug", "error", "issue", "problem", "crash", "broken",
	}},
	{domain.IntentOptimization, []string{
		"optimize", "performance", "improve", "speed up", "reduce", "scale",
	}},
}

// advancedVocabulary feeds the complexity score: presence of these terms
// marks a technically dense query.
var advancedVocabulary = []string{
	"architecture", "concurrency", "distributed", "scalability", "latency",
	"throughput", "idempotent", "consistency", "replication", "sharding",
	"profiling", "instrumentation", "observability", "orchestration",
	"memoization", "normalization",
}

var stopwords = map[string]struct{}{
	"about": {}, "after": {}, "again": {}, "also": {},
	"been": {}, "before": {}, "being": {}, "between": {}, "both": {},
	"could": {}, "does": {}, "doing": {}, "down": {}, "each": {},
	"from": {}, "have": {}, "having": {}, "here": {}, "into": {},
	"just": {}, "like": {}, "make": {}, "more": {}, "most": {},
	"need": {}, "only": {}, "other": {}, "over": {}, "same": {},
	"should": {}, "some": {}, "such": {}, "than": {}, "that": {},
	"their": {}, "them": {}, "then": {}, "there": {}, "these": {},
	"they": {}, "this": {}, "through": {}, "under": {}, "using": {},
	"very": {}, "want": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "while": {}, "will": {}, "with": {}, "would": {},
	"your": {},
}

package analyze

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var positiveWords = set(
	"good", "great", "excellent", "amazing", "awesome", "love", "loved", "loving", "like", "liked",
	"best", "better", "fantastic", "wonderful", "perfect", "happy", "glad", "nice", "helpful", "useful",
	"easy", "fast", "reliable", "recommend", "recommended", "impressive", "enjoy", "enjoyed", "solid", "smooth",
	"intuitive", "powerful", "brilliant", "clean", "elegant", "works", "worth", "favorite", "cool", "superb",
	"thanks", "thank", "win", "wins", "improved", "improvement", "affordable", "simple", "stable", "delightful",
)

var negativeWords = set(
	"bad", "terrible", "awful", "horrible", "hate", "hated", "broken", "bug", "buggy", "bugs",
	"slow", "crash", "crashes", "crashed", "fail", "fails", "failed", "failure", "worst", "worse",
	"annoying", "frustrating", "frustrated", "painful", "pain", "difficult", "hard", "confusing", "useless", "expensive",
	"problem", "problems", "issue", "issues", "error", "errors", "missing", "lacking", "poor", "disappointing",
	"disappointed", "unreliable", "clunky", "bloated", "nightmare", "struggle", "struggling", "sucks", "hell", "tedious",
)

var negationWords = set(
	"not", "no", "never", "don't", "doesn't", "isn't", "wasn't", "aren't", "can't", "won't",
	"shouldn't", "wouldn't", "couldn't", "nothing", "nobody", "neither", "nor", "without",
)

var intensifiers = set(
	"very", "really", "extremely", "super", "so", "totally", "absolutely", "incredibly", "highly", "completely",
)

// domainTable is matched in declaration order; earlier domains win ties.
var domainTable = []struct {
	name     string
	keywords []string
}{
	{"saas", []string{"saas", "subscription", "b2b", "dashboard", "churn", "mrr", "onboarding", "crm", "self-serve", "pricing tier"}},
	{"ecommerce", []string{"ecommerce", "e-commerce", "shopify", "store", "checkout", "cart", "inventory", "dropshipping", "marketplace", "order fulfillment"}},
	{"fintech", []string{"fintech", "payment", "payments", "invoice", "invoicing", "banking", "bank", "accounting", "stripe", "crypto", "budget", "expense"}},
	{"healthcare", []string{"health", "healthcare", "medical", "patient", "doctor", "clinic", "hospital", "therapy", "fitness", "wellness"}},
	{"education", []string{"education", "learning", "course", "courses", "student", "students", "teacher", "school", "tutorial", "edtech"}},
	{"productivity", []string{"productivity", "todo", "task", "tasks", "calendar", "notes", "workflow", "automation", "time tracking", "focus"}},
	{"developer_tools", []string{"api", "sdk", "cli", "developer", "developers", "github", "debugging", "deploy", "ci/cd", "devops", "framework", "library", "ide"}},
	{"ai_ml", []string{"ai", "ml", "llm", "gpt", "machine learning", "model", "embedding", "neural", "chatbot", "openai", "inference"}},
	{"marketing", []string{"marketing", "seo", "ads", "advertising", "newsletter", "email campaign", "growth", "social media", "funnel", "leads"}},
	{"gaming", []string{"game", "games", "gaming", "steam", "unity", "unreal", "esports", "multiplayer", "indie game", "console"}},
	{"social", []string{"social", "community", "forum", "chat", "messaging", "dating", "friends", "followers", "network", "discord"}},
}

// DefaultDomain is assigned when no domain keyword matches.
const DefaultDomain = "general"

package signal

// Index field names shared by the index schema, the storage mapper and
// search filters.
const (
	FieldTitle          = "title"
	FieldBody           = "body"
	FieldPlatform       = "platform"
	FieldAuthor         = "author"
	FieldURL            = "url"
	FieldTags           = "tags"
	FieldScore          = "score"
	FieldNumComments    = "num_comments"
	FieldCreatedAt      = "created_at"
	FieldIndexedAt      = "indexed_at"
	FieldSentiment      = "sentiment"
	FieldSentimentScore = "sentiment_score"
	FieldDomain         = "domain"
	FieldQualityScore   = "quality_score"
	FieldProblem        = "problem"
	FieldEmbedding      = "embedding"
)

// TagSeparator joins multi-valued tag fields in storage.
const TagSeparator = ","

package query

// Record is the persisted unit of data per analyzed user query. All five
// fields are written once on a successful submit and never updated.
type Record struct {
	ID        string `json:"id" dynamodbav:"id"`
	Text      string `json:"user_query" dynamodbav:"user_query"`
	Sentiment string `json:"sentiment" dynamodbav:"sentiment"`
	Language  string `json:"language" dynamodbav:"language"`
	Timestamp string `json:"timestamp" dynamodbav:"timestamp"`
}

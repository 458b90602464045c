package newsapi

// APIResponse is the body of a NewsAPI /v2/everything response.
type APIResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
}

type Article struct {
	Source      ArticleSource `json:"source"`
	Author      *string       `json:"author"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	URL         string        `json:"url"`
	URLToImage  *string       `json:"urlToImage"`
	PublishedAt string        `json:"publishedAt"`
	Content     *string       `json:"content"`
}

type ArticleSource struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

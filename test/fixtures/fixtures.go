// Package fixtures provides upstream response fixtures for resolver tests.
package fixtures

// TweetWithMedia is a Twitter API v2 lookup response with author and two photos.
func TweetWithMedia() string {
	return `{
  "data": {
    "id": "123",
    "text": "Shipping the new card designer today",
    "author_id": "42",
    "attachments": {"media_keys": ["3_1", "3_2"]}
  },
  "includes": {
    "users": [
      {"id": "42", "name": "Acme Inc", "username": "acme", "profile_image_url": "https://pbs.example/acme.jpg"}
    ],
    "media": [
      {"media_key": "3_1", "type": "photo", "url": "https://pbs.example/media/1.jpg"},
      {"media_key": "3_2", "type": "photo", "url": "https://pbs.example/media/2.jpg"}
    ]
  }
}`
}

// TweetTextOnly is a lookup response without media.
func TweetTextOnly() string {
	return `{
  "data": {"id": "456", "text": "just text", "author_id": "7"},
  "includes": {"users": [{"id": "7", "name": "Jane", "username": "jane", "profile_image_url": "https://pbs.example/jane.jpg"}]}
}`
}

// TweetNotFound is the body the API returns with status 200 for deleted tweets.
func TweetNotFound() string {
	return `{
  "errors": [{"title": "Not Found Error", "detail": "Could not find tweet with id: [999]."}]
}`
}

// PageWithOpenGraph has full OpenGraph tags and conflicting basic meta.
func PageWithOpenGraph() string {
	return `
<!DOCTYPE html>
<html>
<head>
    <title>Basic Title</title>
    <meta name="description" content="Basic description">
    <meta property="og:title" content="OG Title">
    <meta property="og:description" content="OG description">
    <meta property="og:image" content="/images/cover.png">
    <meta property="og:site_name" content="Example Blog">
    <meta property="og:type" content="article">
    <meta property="og:url" content="https://example.com/posts/hello">
    <link rel="canonical" href="https://example.com/posts/hello">
</head>
<body>
    <img src="/images/inline.png">
</body>
</html>
`
}

// PageBasicMetaOnly has no OpenGraph tags.
func PageBasicMetaOnly() string {
	return `
<!DOCTYPE html>
<html>
<head>
    <title>Example</title>
    <meta name="description" content="Only basic meta here">
    <meta name="application-name" content="Example Site">
</head>
<body>
    <img src="data:image/gif;base64,R0lGOD">
    <img src="img/first.jpg">
    <img src="https://cdn.example/second.jpg">
</body>
</html>
`
}

// PageMixed has OpenGraph for some fields and basic meta for others.
func PageMixed() string {
	return `
<!DOCTYPE html>
<html>
<head>
    <title>Fallback Title</title>
    <meta property="og:description" content="OG only description">
    <meta name="type" content="website">
</head>
<body></body>
</html>
`
}

// PageEmpty has no metadata at all.
func PageEmpty() string {
	return `<!DOCTYPE html><html><head></head><body><p>nothing</p></body></html>`
}

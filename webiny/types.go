package webiny

// Section is one content block of a post. Content is markdown (requested
// with format "markdown") but older entries may still carry HTML.
type Section struct {
	Content          string `json:"postSectionContent"`
	Image            string `json:"postSectionImage"`
	ImageDescription string `json:"postSectionImageDescription"`
}

// AuthorRef is the inline author name carried by postDefaultAuthor.
type AuthorRef struct {
	Name string `json:"authorName"`
}

// Author is a CMS author entry.
type Author struct {
	ID               string `json:"id"`
	EntryID          string `json:"entryId"`
	CreatedOn        string `json:"createdOn,omitempty"`
	ModifiedOn       string `json:"modifiedOn,omitempty"`
	SavedOn          string `json:"savedOn,omitempty"`
	FirstPublishedOn string `json:"firstPublishedOn,omitempty"`
	LastPublishedOn  string `json:"lastPublishedOn,omitempty"`
	Name             string `json:"authorName"`
	Slug             string `json:"authorSlug"`
	Bio              string `json:"authorBio"`
	Picture          string `json:"authorPicture"`
}

// Post is a CMS article. Nullable CMS fields decode to their zero values.
type Post struct {
	ID                   string     `json:"id"`
	EntryID              string     `json:"entryId"`
	CreatedOn            string     `json:"createdOn,omitempty"`
	ModifiedOn           string     `json:"modifiedOn,omitempty"`
	SavedOn              string     `json:"savedOn,omitempty"`
	FirstPublishedOn     string     `json:"firstPublishedOn,omitempty"`
	LastPublishedOn      string     `json:"lastPublishedOn,omitempty"`
	Headline             string     `json:"postHeadline"`
	Slug                 string     `json:"postSlug"`
	Description          string     `json:"postDescription"`
	SeoHeadline          string     `json:"postSeoHeadline"`
	SeoDescription       string     `json:"postSeoDescription"`
	HeadlineImage        string     `json:"postHeadlineImage"`
	HeadlineImageSmall   string     `json:"postHeadlineImageSmall"`
	HeadlineImageAltText string     `json:"postHeadlineImageAltText"`
	IsFeatured           bool       `json:"postIsFeatured"`
	WrittenDateTime      string     `json:"postWrittenDateTime"`
	EditedDateTime       string     `json:"postEditedDateTime"`
	Tags                 []string   `json:"postTags"`
	Series               string     `json:"postSeries,omitempty"`
	DefaultAuthor        *AuthorRef `json:"postDefaultAuthor"`
	AuthorReference      []Author   `json:"postAuthorReference"`
	Sections             []Section  `json:"postSections"`
}

// AuthorName returns the default author's name, falling back to the first
// referenced author.
func (p Post) AuthorName() string {
	if p.DefaultAuthor != nil && p.DefaultAuthor.Name != "" {
		return p.DefaultAuthor.Name
	}
	for _, a := range p.AuthorReference {
		if a.Name != "" {
			return a.Name
		}
	}
	return ""
}

// ListMeta is the pagination block of list queries.
type ListMeta struct {
	Cursor       string `json:"cursor"`
	HasMoreItems bool   `json:"hasMoreItems"`
	TotalCount   int    `json:"totalCount"`
}

// FileMeta holds image metadata reported by the file manager.
type FileMeta struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// File is a file manager record.
type File struct {
	ID   string   `json:"id"`
	Meta FileMeta `json:"meta"`
}

package webiny

// ListPostsQuery is the list used by the content loader.
const ListPostsQuery = `
  query ListPosts {
    listPosts {
      data {
        id
        entryId
        postHeadline
        postSlug
        postDescription
        postSeoHeadline
        postSeoDescription
        postHeadlineImage
        postHeadlineImageAltText
        postIsFeatured
        postWrittenDateTime
        postEditedDateTime
        postTags
        postDefaultAuthor {
          authorName
        }
        postSections {
          postSectionContent(format: "markdown")
          postSectionImage
          postSectionImageDescription
        }
      }
    }
  }
`

const GetPostQuery = `
  query GetPost($id: ID!) {
    getPost(where: { id: $id }) {
      data {
        id
        entryId
        postHeadline
        postSlug
        postDescription
        postHeadlineImage
        postIsFeatured
        postWrittenDateTime
        postEditedDateTime
        postTags
        postSections {
          postSectionContent(format: "markdown")
          postSectionImage
          postSectionImageDescription
        }
        postAuthorReference {
          id
          entryId
          authorName
          authorSlug
          authorBio
          authorPicture
        }
      }
    }
  }
`

const GetPostBySlugQuery = `
  query GetPostBySlug($slug: String!) {
    listPosts(where: { postSlug: $slug }, limit: 1) {
      data {
        id
        entryId
        createdOn
        modifiedOn
        savedOn
        firstPublishedOn
        lastPublishedOn
        postHeadline
        postSlug
        postDescription
        postSeoHeadline
        postSeoDescription
        postHeadlineImage
        postHeadlineImageSmall
        postHeadlineImageAltText
        postIsFeatured
        postWrittenDateTime
        postEditedDateTime
        postTags
        postSections {
          postSectionContent(format: "markdown")
          postSectionImage
          postSectionImageDescription
        }
        postAuthorReference {
          id
          entryId
          authorName
          authorSlug
          authorBio
          authorPicture
        }
      }
    }
  }
`

const ListAuthorsQuery = `
  query ListAuthors($limit: Int, $after: String) {
    listAuthors(limit: $limit, after: $after) {
      data {
        id
        entryId
        createdOn
        modifiedOn
        savedOn
        firstPublishedOn
        lastPublishedOn
        authorName
        authorSlug
        authorBio
        authorPicture
      }
      meta {
        cursor
        hasMoreItems
        totalCount
      }
    }
  }
`

const GetAuthorQuery = `
  query GetAuthor($id: ID!) {
    getAuthor(where: { id: $id }) {
      data {
        id
        entryId
        createdOn
        modifiedOn
        savedOn
        firstPublishedOn
        lastPublishedOn
        authorName
        authorSlug
        authorBio
        authorPicture
      }
    }
  }
`

// GetFileQuery reads pixel dimensions from the file manager API.
const GetFileQuery = `
  query GetFile($id: ID!) {
    fileManager {
      getFile(id: $id) {
        data {
          id
          meta {
            width
            height
          }
        }
      }
    }
  }
`

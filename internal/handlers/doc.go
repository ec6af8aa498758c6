// Package handlers provides the HTTP JSON API over the media catalog.
//
// It includes handlers for:
//   - Creating, reading, updating and deleting media references
//   - Series and series membership
//   - Keypoints and thumbnail regeneration
//   - Keyset-paginated search and tag-group aggregation
//   - Health checks and build information
//
// Errors carry their catalog kind in the body and map onto status codes:
// BadInput 400, NotFound 404, AlreadyExists and DuplicateContent 409,
// InvalidFile 422, Subprocess 502, everything else 500.
package handlers

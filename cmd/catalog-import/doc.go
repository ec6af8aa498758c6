// Command catalog-import ingests every media file below a directory into the
// catalog.
//
// Discovery walks the tree in parallel; ingestion then runs one file at a
// time through the same pipeline as POST /api/media, so thumbnails, tags and
// duplicate checks behave exactly as they do in the server. Each file is
// reported as created, already_exists, duplicate, invalid_file or failed.
//
// Usage:
//
//	catalog-import [-tags a,b] [-workers n] [-hidden] [-json] [-quiet] <directory>
//
// Exit status is 0 when every file was handled, 3 when some files failed,
// 2 on a usage error and 1 when the run was aborted.
package main

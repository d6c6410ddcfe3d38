// Package storage stores transcript artifacts in object storage.
//
// Backends register themselves through RegisterFactory from their init
// functions; import them for side effects:
//
//	import _ "github.com/kbukum/vidscribe/storage/s3"
//
// Uploader implements the upload contract of the transcription job: take a
// local file or an in-memory buffer, a destination key and a destination
// folder, store the object under "<folder>/<key>" and return its URL.
//
// # Configuration
//
//	storage:
//	  provider: "s3"
//	  folder: "subtitles"
//	  bucket: "media"
//	  region: "us-east-1"
//	  acl: "public-read"
package storage

/*
Package filesystem provides resilient filesystem operations for the catalog's
source files and thumbnail storage.

# Retry

Stat, Open and ReadDir are wrapped with retry logic for NFS stale file handle
errors (ESTALE). Only ESTALE triggers a retry; everything else fails at once.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Defaults: 3 retries, 50ms initial backoff doubling up to 500ms.

# Moving thumbnails

MoveDir moves a staged thumbnail folder into its content-addressed location
once the owning catalog transaction has committed. It replaces any folder
already at the destination and falls back to copy-then-remove across devices.

# Metrics

Operations report through an Observer set with SetObserver. Volume labels come
from a VolumeResolver configured at startup ("catalog", "thumbnails",
"staging").
*/
package filesystem

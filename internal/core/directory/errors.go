package directory

import "errors"

// ErrNotFound 节点既不在内存中也不在节点库中
var ErrNotFound = errors.New("directory: peer not found")

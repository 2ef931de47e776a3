// Package fileutil walks directory trees with caller-controlled pruning.
//
// Walk visits every regular file below a root in lexical order. A caller
// decides per directory whether to descend, and errors reading part of the
// tree (permission denied on a subdirectory, a file vanishing mid-walk) are
// collected rather than aborting the walk:
//
//	result, err := fileutil.Walk(root, fileutil.WalkOptions{
//	    Descend: func(parent, name string) bool { return name != "__pycache__" },
//	}, func(path string) error {
//	    fmt.Println(path)
//	    return nil
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range result.Errors {
//	    log.Printf("skipped: %v", e)
//	}
//
// An error returned by the visit function is fatal and ends the walk.
//
// Symbolic links to directories are neither followed nor reported as files.
package fileutil

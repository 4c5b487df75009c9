package core

import (
	"fmt"
	"strings"

	"gen1/internal/actions"
	"gen1/internal/blocks"
	"gen1/internal/vfs"
)

// localLabel is the display verb for a local action before it runs.
func localLabel(a actions.Action) string {
	switch a := a.(type) {
	case *actions.WriteFile:
		if a.Kind() == actions.KindUpdate {
			return "updated"
		}
		return "created"
	case *actions.DeleteFile:
		return "deleted"
	case *actions.DeleteFiles:
		return "deleted multiple files"
	case *actions.MakeDir:
		return "created directory"
	case *actions.MakeDirs:
		return "created multiple directories"
	case *actions.RemoveDir:
		return "deleted directory"
	case *actions.Move:
		if a.Kind() == actions.KindMoveDir {
			return fmt.Sprintf("renamed/moved directory from %s to", a.OldPath)
		}
		return fmt.Sprintf("renamed/moved file from %s to", a.OldPath)
	case *actions.UpdateCodeBlock:
		return "updated block"
	case *actions.InsertCodeMarkers:
		return "inserted markers"
	}
	return string(a.Kind())
}

// executeLocal applies a file or block action to the session store.
func (e *Executor) executeLocal(a actions.Action) Result {
	files := e.session.Files()
	res := Result{Kind: a.Kind(), Label: localLabel(a), Target: a.Target(), Metadata: map[string]any{}}

	var err error
	switch a := a.(type) {
	case *actions.WriteFile:
		var wr vfs.WriteResult
		if wr, err = files.Write(a.Path, a.Content); err == nil {
			res.Target = wr.Path
			res.Label = "updated"
			if wr.Created {
				res.Label = "created"
			}
			res.Metadata["size"] = sizeString(len(a.Content))
			e.attachDiff(res.Metadata, wr.Path, wr.Path, wr.Previous, a.Content)
		}

	case *actions.DeleteFile:
		path := vfs.NormalizePath(a.Path)
		prev, _ := files.Read(path)
		if err = files.Delete(path); err == nil {
			res.Target = path
			e.attachDiff(res.Metadata, path, path, prev, "")
		}

	case *actions.DeleteFiles:
		var deleted []string
		deleted, err = files.DeleteMultiple(a.Paths)
		res.Metadata["paths"] = deleted
		if len(deleted) > 0 {
			res.Target = strings.Join(deleted, ", ")
		}

	case *actions.MakeDir:
		var created bool
		if created, err = files.Mkdir(a.Path); err == nil {
			res.Target = vfs.DirPath(a.Path)
			res.Metadata["created"] = created
		}

	case *actions.MakeDirs:
		var created []string
		created, err = files.MkdirAll(a.Paths)
		res.Metadata["paths"] = created
		if len(created) > 0 {
			res.Target = strings.Join(created, ", ")
		}

	case *actions.RemoveDir:
		var removed int
		if removed, err = files.Rmdir(a.Path); err == nil {
			res.Target = vfs.DirPath(a.Path)
			res.Metadata["entries"] = removed
		}

	case *actions.Move:
		res.Metadata["old_path"] = a.OldPath
		res.Metadata["new_path"] = a.NewPath
		if a.Kind() == actions.KindMoveDir {
			var moved int
			if moved, err = files.RenameDir(a.OldPath, a.NewPath); err == nil {
				res.Target = vfs.DirPath(a.NewPath)
				res.Metadata["entries"] = moved
			}
			break
		}
		if err = files.RenameFile(a.OldPath, a.NewPath); err == nil {
			res.Target = vfs.NormalizePath(a.NewPath)
			if content, rerr := files.Read(res.Target); rerr == nil {
				res.Metadata["size"] = sizeString(len(content))
			}
		}

	case *actions.UpdateCodeBlock:
		res.Metadata["logicName"] = a.LogicName
		err = e.rewrite(a.Path, res.Metadata, func(content string) (string, error) {
			return blocks.UpdateBlock(content, a.LogicName, a.Content, vfs.Base(a.Path))
		})

	case *actions.InsertCodeMarkers:
		res.Metadata["logicName"] = a.LogicName
		err = e.rewrite(a.Path, res.Metadata, func(content string) (string, error) {
			return blocks.InsertMarkers(content, a.LogicName, a.StartLine, a.EndLine, vfs.Base(a.Path))
		})

	default:
		err = fmt.Errorf("%w: %q is not a local action", actions.ErrUnknownAction, a.Kind())
	}

	if err != nil {
		res.Err = err
		return res
	}
	res.Success = true
	return res
}

// rewrite reads path, transforms its content and writes it back.
func (e *Executor) rewrite(path string, meta map[string]any, fn func(string) (string, error)) error {
	files := e.session.Files()
	content, err := files.Read(path)
	if err != nil {
		return err
	}
	updated, err := fn(content)
	if err != nil {
		return err
	}
	if _, err := files.Write(path, updated); err != nil {
		return err
	}
	meta["size"] = sizeString(len(updated))
	p := vfs.NormalizePath(path)
	e.attachDiff(meta, p, p, content, updated)
	return nil
}

func (e *Executor) attachDiff(meta map[string]any, oldPath, newPath, before, after string) {
	if before == after {
		return
	}
	meta["diff"] = e.diffs.Unified(oldPath, newPath, before, after)
	meta["diffSummary"] = e.diffs.ComputeDiff(oldPath, newPath, before, after).Summary()
}

// Package export turns viewer content into downloadable files: wire
// wrappers are stripped, each item's type picks its extension and list
// content becomes an archive with one file per item.
package export

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/charmbracelet/x/ansi"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/detect"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/logging"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/multiview"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/registry"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/views"
)

// DefaultExtension is used when a view has no table entry.
const DefaultExtension = "txt"

// extensions maps view names to file extensions. The ANSI view strips
// to plain text, the object inspector saves its envelope payload and
// canvas saves the composite image when one exists.
var extensions = map[string]string{
	"markdown":   "md",
	"json":       "json",
	"yaml":       "yaml",
	"csv":        "csv",
	"svg":        "svg",
	"html":       "html",
	"python":     "py",
	"javascript": "js",
	"css":        "css",
	"ansi":       "txt",
	"text":       "txt",
	"object":     "json",
	"canvas":     "png",
}

// File is one planned export entry.
type File struct {
	// Name is the full file name including extension.
	Name string

	// Ext is the extension without the dot.
	Ext string

	// Data is the file content.
	Data []byte
}

// Plan resolves content into export files. Single content yields one
// file; list content yields one file per item with zero-padded names.
// Markers and multiview wrappers are stripped so files carry clean
// data, never internal wire format.
func Plan(content string, reg registry.Registry) ([]File, error) {
	engine := detect.New(reg)

	if !types.IsListContent(content) {
		data, ext, err := planOne(content, reg, engine)
		if err != nil {
			return nil, err
		}
		return []File{{Name: "content." + ext, Ext: ext, Data: data}}, nil
	}

	items := types.SplitList(content)
	files := make([]File, 0, len(items))
	for i, item := range items {
		data, ext, err := planOne(item, reg, engine)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("item_%03d.%s", i, ext)
		files = append(files, File{Name: name, Ext: ext, Data: data})
	}
	return files, nil
}

// Archive writes files as a zip archive.
func Archive(w io.Writer, files []File) error {
	zw := zip.NewWriter(w)
	for _, f := range files {
		entry, err := zw.Create(f.Name)
		if err != nil {
			return errors.Wrapf(err, errors.ErrExportFailed, "creating archive entry %s", f.Name)
		}
		if _, err := entry.Write(f.Data); err != nil {
			return errors.Wrapf(err, errors.ErrExportFailed, "writing archive entry %s", f.Name)
		}
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrExportFailed, "closing archive")
	}
	return nil
}

// planOne resolves one item to its export bytes and extension.
func planOne(item string, reg registry.Registry, engine *detect.Engine) ([]byte, string, error) {
	// A multiview wrapper exports its default entry's payload.
	if multiview.IsMultiview(item) {
		if env, err := multiview.Parse(item, reg); err == nil {
			item = env.ActiveEntry("").DisplayContent
		} else {
			logging.GetLogger("export").Warn().Err(err).Msg("multiview envelope rejected, exporting raw bytes")
		}
	}

	result, err := engine.Best(item)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.ErrExportFailed, "detecting export type")
	}
	name := result.View.Name()

	switch name {
	case views.CanvasViewName:
		if comp, err := views.CompositeFromContent(item); err == nil {
			return comp.PNG, extensions[name], nil
		}
		if types.HasMarker(item, types.CanvasOutputMarker) {
			// Output payload without a decodable composite; save the
			// raw payload.
			return []byte(types.TrimMarker(item, types.CanvasOutputMarker)), DefaultExtension, nil
		}
		// Composer envelope with no composite yet; save the payload.
		return []byte(stripMarker(item, reg)), "json", nil

	case views.ANSIViewName:
		return []byte(ansi.Strip(item)), extensions[name], nil
	}

	ext, ok := extensions[name]
	if !ok {
		ext = DefaultExtension
	}
	return []byte(stripMarker(item, reg)), ext, nil
}

// stripMarker removes a registered view marker prefix, if any.
func stripMarker(content string, reg registry.Registry) string {
	for _, marker := range reg.Markers() {
		if types.HasMarker(content, marker) {
			return types.TrimMarker(content, marker)
		}
	}
	return content
}

package linkcheck

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Problem is a single broken reference found in the Generated Output.
type Problem struct {
	File   string // html file containing the link, relative to the output root
	Link   string // raw link value
	Reason string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s (%s)", p.File, p.Link, p.Reason)
}

// VerifyDir checks every internal link and fragment anchor in the HTML files
// under root. The returned problems are empty when the output is consistent.
func VerifyDir(root string) ([]Problem, error) {
	pages := map[string]*Page{} // relative path -> parsed page

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		page, err := ExtractPage(path)
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}
		pages[filepath.ToSlash(rel)] = page
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan output directory: %w", err)
	}

	var problems []Problem
	for rel, page := range pages {
		for _, link := range page.Links {
			if !link.IsInternal {
				continue
			}
			if problem := checkInternal(root, rel, link, pages); problem != nil {
				problems = append(problems, *problem)
			}
		}
	}
	return problems, nil
}

func checkInternal(root, fromRel string, link Link, pages map[string]*Page) *Problem {
	u, err := url.Parse(link.URL)
	if err != nil {
		return &Problem{File: fromRel, Link: link.URL, Reason: "unparseable URL"}
	}

	targetRel := fromRel
	if u.Path != "" {
		targetRel = filepath.ToSlash(filepath.Join(filepath.Dir(fromRel), u.Path))
		if strings.HasPrefix(targetRel, "../") {
			return &Problem{File: fromRel, Link: link.URL, Reason: "points outside the output directory"}
		}
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(targetRel))); err != nil {
			return &Problem{File: fromRel, Link: link.URL, Reason: "target file does not exist"}
		}
	}

	if u.Fragment != "" {
		target, parsed := pages[targetRel]
		if !parsed {
			// Fragment into a non-HTML target; nothing to verify.
			return nil
		}
		if !target.Anchors[u.Fragment] {
			return &Problem{File: fromRel, Link: link.URL, Reason: fmt.Sprintf("missing anchor #%s", u.Fragment)}
		}
	}
	return nil
}

// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ModuleNotFoundId Id = iota + 1
	ModuleParseErrorId
	ArtifactUnavailableId
	ResolutionFailedId
	ReleaseOrderViolationId
	ConfigLoadFailedId
	BuildFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module not found!

We searched every configured search path but couldn't find a package
directory for the requested module.

## Search locations (in order of precedence):
1. Paths passed on the command line
2. ` + "`search_paths`" + ` in your config file

## Things you can try:
- List the modules that are visible from here:
~~~
$ modswap list
~~~

- Add the directory holding your module to the config:
~~~cue
search_paths: ["./modules"]
~~~`,
	}

	moduleParseErrorIssue = &Issue{
		id: ModuleParseErrorId,
		mdMsg: `
# Module sources failed to parse!

One of the module's CUE files is malformed or its declarations conflict
with another file of the same module.

## Things you can try:
- Check the file and line reported below the error message
- Remember that every file of a module is unified into one document:
  two files declaring the same symbol with different values conflict
- Validate the module in isolation:
~~~
$ modswap inspect <module>
~~~`,
	}

	artifactUnavailableIssue = &Issue{
		id: ArtifactUnavailableId,
		mdMsg: `
# Distribution artifact missing or stale!

The requested stitched script or archive either doesn't exist yet or was
built from sources that have changed since. A stale artifact is treated
exactly like a missing one.

## Things you can try:
- Rebuild the artifacts:
~~~
$ modswap build <module>
~~~

- Keep them fresh while editing:
~~~
$ modswap build <module> --watch
~~~`,
	}

	resolutionFailedIssue = &Issue{
		id: ResolutionFailedId,
		mdMsg: `
# Symbol path failed to resolve!

A dotted path names a module by its longest importable prefix and then an
attribute chain inside it. Resolution fails when no prefix is importable,
or when an intermediate attribute is missing.

## Things you can try:
- Inspect the module to see its actual symbols:
~~~
$ modswap inspect <module>
~~~
- Remember that resolution runs against the *currently active* variant;
  a swapped-in artifact may predate the symbol you are looking for`,
	}

	releaseOrderViolationIssue = &Issue{
		id: ReleaseOrderViolationId,
		mdMsg: `
# Patch released out of order!

Patches on the same attribute form a stack: the most recent one must be
released first. An out-of-order release fails without undoing anything.

## Things you can try:
- Release handles in reverse order of acquisition
- Prefer the test harness helpers, which tie release to scope teardown`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration failed to load!

Your config file exists but couldn't be read, parsed, or validated.

## Things you can try:
- Check that the file contains valid CUE syntax
- Verify the values match the expected schema (search_paths is a list
  of strings, dist_dir is a string)`,
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Artifact build failed!

The stitcher or bundler couldn't produce an artifact from the module's
sources.

## Things you can try:
- Make sure the module directory contains at least one .cue source
- Check that the dist directory is writable`,
	}

	issues = map[Id]*Issue{
		moduleNotFoundIssue.Id():        moduleNotFoundIssue,
		moduleParseErrorIssue.Id():      moduleParseErrorIssue,
		artifactUnavailableIssue.Id():   artifactUnavailableIssue,
		resolutionFailedIssue.Id():      resolutionFailedIssue,
		releaseOrderViolationIssue.Id(): releaseOrderViolationIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		buildFailedIssue.Id():           buildFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}

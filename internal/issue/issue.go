// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	SourceUnreachableId Id = iota + 1
	MissingApiKeyId
	InvalidManifestId
	PublishConflictId
	PackageNotFoundId
	NoMatchingResourceId
	ConfigLoadFailedId
	ArchiveTooLargeId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

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

	sourceUnreachableIssue = &Issue{
		id: SourceUnreachableId,
		mdMsg: `
# Registry source unreachable!

We could not fetch the service index from the configured source.

## Things you can try:
- Check the source URL (it must point at a v3 service index):
~~~
$ nugo ping --source https://api.nuget.org/v3/index.json
~~~

- Verify your network connection and proxy settings
- If the registry is private, confirm it is up and reachable from this
  machine
- Override the source for a single run:
~~~
$ nugo search mylib --source https://my.feed.example/v3/index.json
~~~`,
	}

	missingApiKeyIssue = &Issue{
		id: MissingApiKeyId,
		mdMsg: `
# No API key configured!

This operation mutates the registry and needs an API key, but none was
found for the configured source.

## Things you can try:
- Store a key for the source:
~~~
$ nugo login --api-key <KEY>
~~~

- Or pass it for a single run:
~~~
$ nugo publish ./nupkg.cue --api-key <KEY>
~~~

- Keys are kept per source in the credentials file under your user config
  directory (owner-readable only).`,
	}

	invalidManifestIssue = &Issue{
		id: InvalidManifestId,
		mdMsg: `
# Invalid package manifest!

The manifest failed validation. Every defect is listed above, not just the
first one.

## Common issues:
- Package id must be letters, digits, '.', '_' or '-', starting and ending
  with a letter or digit
- Version must be a valid semantic version (an optional 4th revision digit
  is accepted)
- Every dependency range must parse and be non-empty
- Every declared file must exist, and targets must be unique

## Example of a valid manifest:
~~~cue
id: "Sample.Pkg"
version: "1.2.3"
description: "A sample package."
authors: ["Ada Lovelace"]

dependencies: {
	"Newtonsoft.Json": "[12.0.0,13.0.0)"
}

files: [
	{src: "bin/a.dll", target: "lib/a.dll"},
]
~~~`,
	}

	publishConflictIssue = &Issue{
		id: PublishConflictId,
		mdMsg: `
# Package version already exists!

The registry already holds a package with this exact id and version.
Published versions are immutable; the registry will not overwrite them.

## Things you can try:
- Bump the version in your manifest and publish again
- If the existing version should be hidden, unlist it:
~~~
$ nugo unlist Sample.Pkg 1.2.3
~~~`,
	}

	packageNotFoundIssue = &Issue{
		id: PackageNotFoundId,
		mdMsg: `
# Package not found!

The registry has no package matching the id (and version) you gave.

## Things you can try:
- Check the spelling; ids are case-insensitive but must otherwise match
- Search the registry:
~~~
$ nugo search <term>
~~~

- For unlist/relist, the exact version must have been published first`,
	}

	noMatchingResourceIssue = &Issue{
		id: NoMatchingResourceId,
		mdMsg: `
# Registry does not support this operation!

The source's service index advertises no version of the required endpoint
that this client can speak.

## Things you can try:
- Inspect what the source advertises:
~~~
$ nugo ping
~~~

- Some read-only mirrors omit the publish endpoint; point publish/unlist
  at the primary registry instead
- Upgrade nugo if the registry only advertises newer API versions`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the nugo configuration file.

## Configuration file locations:
- Linux: ~/.config/nugo/config.cue
- macOS: ~/Library/Application Support/nugo/config.cue
- Windows: %APPDATA%\nugo\config.cue

## Things you can try:
- Check the configuration syntax
- Remove the config file to use defaults

## Example configuration:
~~~cue
source: "https://api.nuget.org/v3/index.json"
timeout: "30s"

retry: {
	max_attempts: 3
	base_delay:   "500ms"
}
~~~`,
	}

	archiveTooLargeIssue = &Issue{
		id: ArchiveTooLargeId,
		mdMsg: `
# Archive entry too large!

One of the files declared in the manifest exceeds the per-entry size
ceiling (250 MiB by default).

## Things you can try:
- Check that the declared path points at the intended file
- Split oversized content across packages
- Large binary assets usually belong in a blob store, with the package
  holding a reference`,
	}

	issues = map[Id]*Issue{
		sourceUnreachableIssue.Id():  sourceUnreachableIssue,
		missingApiKeyIssue.Id():      missingApiKeyIssue,
		invalidManifestIssue.Id():    invalidManifestIssue,
		publishConflictIssue.Id():    publishConflictIssue,
		packageNotFoundIssue.Id():    packageNotFoundIssue,
		noMatchingResourceIssue.Id(): noMatchingResourceIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		archiveTooLargeIssue.Id():    archiveTooLargeIssue,
	}
)

func Values() []*Issue {
	return slices.Collect(maps.Values(issues))
}

func Get(id Id) *Issue {
	return issues[id]
}

package config

// Starter is the gitref.yaml written by "gitref init". Every key is
// optional; the commented values are the defaults.
const Starter = `# gitref configuration
#
# Reference code from your documentation with
#   :gitref:` + "`path/to/file.py::Class.method`" + `      (reStructuredText)
#   {gitref}` + "`path/to/file.py::Class.method`" + `      (MyST Markdown)
# then run "gitref update" to record the referenced code and
# "gitref check" to fail when it changes.

# Directory the targets are relative to, relative to this file.
# Defaults to the nearest ancestor containing a .git directory.
# project_root: ..

# Remote used to build links. Read from .git/config when unset.
# remote_name: origin
# remote_url: git@github.com:user/repo.git

# Branch used in links. Read from .git/HEAD when unset.
# branch: main

# Link format for remotes that are not GitHub, GitLab or Bitbucket.
# url_template: https://git.example.com/{repo}/blob/{branch}/{filename}
# line_anchor: "#L{line}"

# Link text of code references without an explicit title.
# label_format: "{filename}::{coderef}"

# Record and compare fingerprints. When false, references are only
# resolved and linked.
# hashing: true
# hash_file: gitref.json

# Documents to scan.
# include:
#   - "**/*.rst"
#   - "**/*.md"
# exclude: []

# workers: 0        # 0 uses every CPU
# log_level: info
`

package manifest

// InitTemplate is the scaffold written by `ldh init`.
const InitTemplate = `# ldh manifest
[package]
name = "my-package"
version = "0.1.0"
authors = ["Your Name <you@example.com>"]

[dependencies]
# Pin to a tag.
fmt = { git = "https://github.com/fmtlib/fmt.git", tag = "10.2.1" }

# Other selectors (at most one per dependency):
# spdlog = { git = "https://github.com/gabime/spdlog.git", version = "^1.12.0" }
# json = { git = "https://github.com/nlohmann/json.git", branch = "develop" }
# zlib = { git = "https://github.com/madler/zlib.git", commit = "51b7f2abdade71cd9bb0e7a373ef2610ec6f9daf" }
# No selector tracks the default branch:
# catch2 = { git = "https://github.com/catchorg/Catch2.git" }
`

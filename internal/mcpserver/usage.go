package mcpserver

// UsageText is the static help returned by the memex_info tool.
const UsageText = `# memex

Hybrid search and graph exploration over markdown vaults.

## Setup

Set MEMEX_VAULTS to a colon-separated list of vault directories:

    MEMEX_VAULTS=/home/me/notes:/home/me/work-wiki

Each path's final directory name becomes its vault id ("notes",
"work-wiki"). Vaults are re-indexed on demand before every query, so
results always reflect the current files on disk.

## Tools

### search
Find notes by keyword, by meaning, or both.

- keywords: exact-match terms for full-text search (titles, aliases,
  tags, body content).
- query: natural-language text for semantic similarity search.
- Supplying both fuses the two rankings (reciprocal rank fusion).
- vault: restrict to one vault (default: all).
- limit / page: page size (default 5) and 1-indexed page number.
- concise: return only vault/path/title instead of full content.

Example workflow: search with a conceptual query first, then narrow
with keywords if too broad.

### explore
Inspect the neighborhood of one note found via search.

- outlinks: notes this note references via [[wikilinks]], with resolved
  paths (empty when the target does not exist yet).
- backlinks: notes that reference this note by title.
- similar: semantically close notes that are NOT already linked,
  surfacing connections worth making explicit.

### memex_info
Returns this text.
`

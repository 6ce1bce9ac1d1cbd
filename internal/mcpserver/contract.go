package mcpserver

// CompFormatContract describes the canonical comp record shape that MCP
// consumers should follow when reading or creating comps.
const CompFormatContract = `# Gebo Comp Record Contract

Every comp stored in Gebo follows this structure.

## Store document

The store is one JSON document mapping comp name to record:

` + "```" + `json
{
  "blade-ace": {
    "notes": "<p>Open with the sword carry...</p>",
    "items": ["Sword", "Bow"],
    "tags": ["aggro"],
    "lastEdited": "2025-01-15T10:30:00Z",
    "color": "#8844cc"
  }
}
` + "```" + `

## Rules

1. **Names are lowercase.** The key doubles as the identifier; the display
   form is derived by capitalizing each word ("blade-ace" → "Blade-Ace").
2. **notes** is an HTML fragment. Images are referenced with relative
   paths: ` + "`" + `<img src="../data/images/<filename>">` + "`" + `. Use the save_image
   tool to persist an image and obtain its path.
3. **items** is an ordered list of free-text item names; duplicates are
   allowed.
4. **tags** is a list of free-text labels used for filtering.
5. **lastEdited** is an ISO-8601 instant, bumped on every mutation.
6. **color** is optional; omit it to let clients derive a default.
7. Comp names are unique. Imports never overwrite: colliding names get an
   "-imported" suffix.
`

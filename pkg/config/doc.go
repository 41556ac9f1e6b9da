/*
Package config loads exporter settings.

	            +-------------+
	            |   Config    |
	            +------+------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	|  YAML   |   |   HCL   |   |  JSON   |
	+---------+   +---------+   +---------+
	                   |
	            +------+------+
	            | .env + env  |
	            +-------------+

🎯 Purpose:
- Holds the Confluence and Jira connection settings
- Holds the page and attachment path templates
- Holds the Markdown style and the macros to ignore

🔄 Flow:
1. Start from Default()
2. Overlay the config file using the parser registered for its extension
3. Load the .env file next to it without overriding the process environment
4. Overlay ATLASSIAN_*, JIRA_*, MARKDOWN_STYLE, PAGE_PATH, ATTACHMENT_PATH, OUTPUT_ROOT_PATH, DEBUG
5. Validate

An invalid markdown style is reported as ErrInvalidMarkdownStyle.
*/
package config

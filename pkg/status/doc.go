/*
Package status writes exported files and tracks what happened to them.

	            +-------------+
	            |   Manager   |
	            +------+------+
	                   |
	      +------------+------------+
	      |                         |
	+-----+-----+             +-----+-----+
	|   Files   |             |  Status   |
	| (atomic)  |             | (tracked) |
	+-----------+             +-----------+

🎯 Purpose:
- Writes pages, attachments and assets under one output root
- Creates parent directories and replaces files atomically
- Classifies each write as new, modified or unchanged
- Matches content-hash assets by glob

Paths given to the Manager are relative to its base directory and may use
forward slashes on every platform.
*/
package status

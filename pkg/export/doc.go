/*
Package export drives page exports and keeps them resumable.

	+-------------+      +-----------+      +-----------+
	|  Operation  | ---> | Exporter  | ---> | Converter |
	|   (Runner)  |      | (batches) |      | (Markdown)|
	+-------------+      +-----+-----+      +-----------+
	                           |
	                     +-----+-----+
	                     |   state   |
	                     | (.cache/) |
	                     +-----------+

🔄 Flow:
1. An operation enumerates page ids (explicit, descendants, space, all spaces)
2. Ids already in the progress log are dropped
3. Each page is converted, written and its attachments downloaded
4. The id is appended to the progress log

⚡ Failures:
A page that fails is logged and skipped. It is not appended, so the next
run retries it. An invalid markdown style aborts the batch.
*/
package export

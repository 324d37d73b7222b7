/*
Package trackerdb implements a small sqlite3 database recording, for every
reserved address ever observed online, the timestamp of the most recent run
in which it was online.

Q: Why do we need such a "tracker DB" and we can't just rely on the CSV
history files?
A: The per-address CSV files and the tracker DB solve two different issues:
a per-address file only exists while its address is reserved; once the
reservation is deleted, the reconciler removes the file and its content is
gone (only the global ledger keeps the rows). Moreover, the CSV rows of an
offline record carry an empty lastOnlineDate/lastOnlineTime by default, so
the files alone cannot answer "when was this address last online?" without
scanning the whole ledger. The tracker DB keeps exactly one row per address
with that answer, updated on every run in which the address is online.

Q: What do we use the tracker DB for?
A: To implement the optional "recover_last_online" feature: when enabled,
the record writer consults this DB for offline addresses so that the
lastOnlineDate/lastOnlineTime columns reflect the true historical
last-online moment across runs instead of staying empty.

Q: Who writes to the tracker DB?
A: Only this process. Rows are upserted by the record writer; nothing ever
deletes them, so the DB also works as a durable inventory of every address
seen online, surviving the pruning of per-address files.
*/
package trackerdb

package postgres

const insertEventSQL = `
INSERT INTO events (
  id, author_id, title, description, type, image_urls, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7)
`

const insertDaySQL = `
INSERT INTO event_day_details (
  event_id, day_date, start_time, end_time,
  is_online, is_offline, online_place, offline_place
) VALUES ($1, $2::date, $3::time, $4::time, $5, $6, $7, $8)
RETURNING id
`

const insertEventTagSQL = `
INSERT INTO events_tags (event_id, tag_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

const eventColumns = `e.id, e.author_id, e.title, e.description, e.type, e.image_urls, e.created_at`

const getEventSQL = `
SELECT ` + eventColumns + `
FROM events e WHERE e.id = $1
`

const selectDaysSQL = `
SELECT d.id, d.event_id, to_char(d.day_date, 'YYYY-MM-DD'),
       to_char(d.start_time, 'HH24:MI:SS'), to_char(d.end_time, 'HH24:MI:SS'),
       d.is_online, d.is_offline, d.online_place, d.offline_place
FROM event_day_details d
WHERE d.event_id = ANY($1::uuid[])
ORDER BY d.event_id, d.day_date, d.id
`

const selectEventTagsSQL = `
SELECT et.event_id, et.tag_id, tt.language_code, tt.name
FROM events_tags et
LEFT JOIN tag_translations tt ON tt.tag_id = et.tag_id
WHERE et.event_id = ANY($1::uuid[])
ORDER BY et.event_id, et.tag_id, tt.language_code
`

const listTagsSQL = `
SELECT tt.tag_id, tt.language_code, tt.name
FROM tag_translations tt
WHERE tt.language_code = $1
ORDER BY tt.tag_id
`

const citySuggestionsSQL = `
SELECT MIN(d.offline_place), COUNT(*) AS uses
FROM event_day_details d
WHERE d.is_offline
  AND d.offline_place <> ''
  AND LOWER(d.offline_place) LIKE $1 || '%' ESCAPE '\'
GROUP BY LOWER(d.offline_place)
ORDER BY uses DESC, LOWER(d.offline_place) COLLATE "C" ASC
LIMIT $2
`

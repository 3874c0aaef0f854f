package sqlinline

const QInsertPanelResult = `--sql 8a34f8db-588e-4487-9ad2-53a4d8910a34
insert into panel_results (
  id,
  run_id,
  panel_type,
  image_key,
  payload
)
values ($1, $2, $3, $4, $5::jsonb);
`

const QListPanelResultsByRun = `--sql d2ee5d7c-0463-4e21-8ffd-a55d05c2dd2f
select id, run_id, panel_type, coalesce(image_key, ''), payload, created_at
from panel_results
where run_id = $1
order by created_at asc;
`

const QDeletePanelResultsByRun = `--sql cdaf1542-8a9a-49b9-9980-08a95dffe476
delete from panel_results
where run_id = $1;
`

package sqlinline

const QInsertRun = `--sql e812cdd8-9714-4899-90b7-304391954ad4
insert into runs (
  id,
  design_fingerprint,
  design_json,
  base_seed,
  status
)
values ($1, $2, $3::jsonb, $4, 'queued');
`

const QClaimNextQueuedRun = `--sql 53fce8ac-4e89-4586-8974-caf80679bc00
with next_run as (
    select id
    from runs
    where status = 'queued'
    order by created_at asc
    for update skip locked
    limit 1
),
claimed as (
    update runs
    set status = 'running', updated_at = now()
    where id in (select id from next_run)
    returning id, design_fingerprint, design_json, base_seed, status, created_at, updated_at
)
select * from claimed;
`

const QUpdateRunStatus = `--sql 22b8e899-d2b2-4cc1-94e0-9f7d93c6cb60
update runs
set status = $2,
    abort_reason = coalesce($3, abort_reason),
    report_json = coalesce($4::jsonb, report_json),
    updated_at = now()
where id = $1;
`

const QGetRun = `--sql dc6d8710-68e7-495c-ad2b-5efa5a583162
select id, design_fingerprint, design_json, base_seed, status,
       coalesce(abort_reason, ''), report_json, created_at, updated_at
from runs
where id = $1;
`

const QLatestRunByFingerprint = `--sql aa61bcb4-6ff1-4230-80e9-a31c23d10cfb
select id, design_fingerprint, design_json, base_seed, status,
       coalesce(abort_reason, ''), report_json, created_at, updated_at
from runs
where design_fingerprint = $1
order by created_at desc
limit 1;
`

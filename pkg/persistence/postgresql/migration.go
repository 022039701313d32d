package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Process definitions; steps are an ordered JSON array
			CREATE TABLE processes (
				id VARCHAR(255) PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				steps JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_processes_created_at ON processes(created_at);

			-- Process instances live in their own table; process_id is intentionally not a
			-- foreign key so deleting a definition leaves its instances as orphans
			CREATE TABLE process_instances (
				id VARCHAR(255) PRIMARY KEY,
				process_id VARCHAR(255) NOT NULL,
				current_step_id VARCHAR(255),
				status VARCHAR(50) NOT NULL CHECK (status IN ('active', 'completed', 'paused')),
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				task_ids JSONB NOT NULL DEFAULT '[]',
				started_by VARCHAR(255) NOT NULL DEFAULT '',
				stall_reason TEXT NOT NULL DEFAULT '',
				stalled_at TIMESTAMP WITH TIME ZONE,
				version BIGINT NOT NULL DEFAULT 1,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_process_instances_process_id ON process_instances(process_id);
			CREATE INDEX idx_process_instances_status ON process_instances(status);

			CREATE TABLE tasks (
				id VARCHAR(255) PRIMARY KEY,
				title VARCHAR(512) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL,
				priority VARCHAR(50) NOT NULL DEFAULT 'medium',
				assignee_id VARCHAR(255) NOT NULL DEFAULT '',
				start_date TIMESTAMP WITH TIME ZONE,
				end_date TIMESTAMP WITH TIME ZONE,
				process_id VARCHAR(255),
				process_instance_id VARCHAR(255),
				step_id VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_tasks_process_instance_id ON tasks(process_instance_id);
			CREATE INDEX idx_tasks_assignee_id ON tasks(assignee_id);

			CREATE TABLE org_positions (
				id VARCHAR(255) PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				department_id VARCHAR(255),
				manager_position_id VARCHAR(255),
				holder_user_id VARCHAR(255)
			);

			CREATE INDEX idx_org_positions_manager ON org_positions(manager_position_id);

			CREATE TABLE org_users (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				email VARCHAR(255) NOT NULL DEFAULT '',
				chat_id VARCHAR(255) NOT NULL DEFAULT ''
			);
		`,
		2: `
			-- Manual pauses carry an operator reason, separate from stalls
			ALTER TABLE process_instances ADD COLUMN pause_reason TEXT NOT NULL DEFAULT '';
		`,
	}
}
